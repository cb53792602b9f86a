package expr

// Equal reports structural equality. Constants compare by value and
// normalized atoms compare by polynomial.
func Equal(a, b Expr) bool {
	type pair struct{ a, b Expr }

	stack := []pair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.a == nil || p.b == nil {
			if p.a != p.b {
				return false
			}
			continue
		}

		switch x := p.a.(type) {
		case Element:
			if _, ok := p.b.(Element); !ok {
				return false
			}
		case Constant:
			y, ok := p.b.(Constant)
			if !ok || x.Value().Cmp(y.Value()) != 0 {
				return false
			}
		case GtZero:
			y, ok := p.b.(GtZero)
			if !ok || !x.P.Equal(y.P) {
				return false
			}
		case EqZero:
			y, ok := p.b.(EqZero)
			if !ok || !x.P.Equal(y.P) {
				return false
			}
		default:
			opA, la, ra, _ := operands(p.a)
			opB, lb, rb, ok := operands(p.b)
			if !ok || opA != opB {
				return false
			}
			stack = append(stack, pair{ra, rb}, pair{la, lb})
		}
	}
	return true
}
