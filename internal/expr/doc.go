// Package expr defines the expression tree for map/filter pipeline steps.
//
// Every node is either arithmetic (Arith) or boolean (Bool). The two
// capabilities are disjoint marker interfaces over the sealed Expr
// interface, so a Plus can only hold arithmetic operands and an And can only
// hold boolean operands. Untyped operands coming from the parser or from
// substitution pass through Build, which is the single place where a
// capability mismatch is reported as a TYPE ERROR.
//
// Variants:
//   - Element, Constant (leaves, Arith)
//   - Plus, Minus, Mult (Arith x Arith -> Arith)
//   - Gt, Lt, Eq (Arith x Arith -> Bool)
//   - And, Or (Bool x Bool -> Bool)
//   - GtZero, EqZero (normalized comparisons "P > 0" and "P = 0", Bool)
//
// All structural walks (printing, equality, folding, substitution,
// polynomial conversion, evaluation) use explicit stacks, so arbitrarily deep
// trees never exhaust the goroutine stack.
package expr
