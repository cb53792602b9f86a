// Package poly provides the canonical coefficient form of arithmetic
// expressions in the single pipeline variable.
//
// A Polynomial is a slice of arbitrary-precision integer coefficients indexed
// by power, with trailing zero coefficients trimmed. Because the form is
// canonical, two arithmetic expressions are semantically equal exactly when
// their polynomials are structurally equal.
//
// Key design constraints:
//   - NO floats anywhere - coefficients are *big.Int
//   - Values are immutable; every operation returns a new Polynomial
//   - Degree() is -1 for the zero polynomial
//
// This package imports nothing internal. Conversion to and from expression
// trees lives in package expr.
package poly
