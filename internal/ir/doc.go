// Package ir provides the canonical serialized records of callchain.
//
// It holds the constrained value types used for content addressing, the
// RFC 8785 canonical JSON encoder, domain-separated hashes, and the records
// shared by the store, the engine and the catalog.
//
// ir imports nothing internal. Chains and expressions enter as their text
// form, which is already canonical after a rewrite.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - All JSON tags use snake_case
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
