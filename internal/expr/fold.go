package expr

// Fold reduces e bottom-up without native recursion.
//
// leaf is called for Element, Constant, GtZero and EqZero nodes (and for a
// nil child, which callers should reject). node is called for every binary
// node with its operator token and the already-folded operands. Operands are
// folded left before right, so side effects in leaf and node observe the
// same order as a recursive in-order walk.
func Fold[T any](e Expr, leaf func(Expr) (T, error), node func(op string, l, r T) (T, error)) (T, error) {
	type frame struct {
		e        Expr
		expanded bool
	}

	var zero T
	stack := []frame{{e: e}}
	var vals []T

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		op, l, r, ok := operands(f.e)
		if !ok {
			v, err := leaf(f.e)
			if err != nil {
				return zero, err
			}
			vals = append(vals, v)
			continue
		}

		if !f.expanded {
			// Re-push the node, then right, then left: left is popped first.
			stack = append(stack, frame{e: f.e, expanded: true}, frame{e: r}, frame{e: l})
			continue
		}

		lv, rv := vals[len(vals)-2], vals[len(vals)-1]
		vals = vals[:len(vals)-2]
		v, err := node(op, lv, rv)
		if err != nil {
			return zero, err
		}
		vals = append(vals, v)
	}

	if len(vals) != 1 {
		return zero, InvariantErrorf("fold left %d values on the stack", len(vals))
	}
	return vals[0], nil
}

// Size returns the number of nodes in e.
func Size(e Expr) int {
	n, _ := Fold(e,
		func(Expr) (int, error) { return 1, nil },
		func(_ string, l, r int) (int, error) { return l + r + 1, nil },
	)
	return n
}

// Depth returns the height of e. A leaf has depth 1.
func Depth(e Expr) int {
	n, _ := Fold(e,
		func(Expr) (int, error) { return 1, nil },
		func(_ string, l, r int) (int, error) { return max(l, r) + 1, nil },
	)
	return n
}
