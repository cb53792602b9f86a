package expr

// Compose substitutes with for every Element inside e.
//
// Constants are kept, composite nodes are rebuilt through Build, and
// normalized atoms are first expanded back to (poly > 0) or (poly = 0). The
// substituted value must be arithmetic. A boolean e always yields a boolean
// result; anything else is an INVARIANT ERROR.
func Compose(e Expr, with Arith) (Expr, error) {
	if with == nil {
		return nil, InvariantErrorf("cannot substitute a missing expression")
	}

	out, err := Fold(e,
		func(leaf Expr) (Expr, error) {
			switch n := leaf.(type) {
			case Element:
				return with, nil
			case Constant:
				return n, nil
			case GtZero:
				return Compose(Gt{L: FromPolynomial(n.P), R: Int(0)}, with)
			case EqZero:
				return Compose(Eq{L: FromPolynomial(n.P), R: Int(0)}, with)
			}
			return nil, InvariantErrorf("cannot substitute into %s", describe(leaf))
		},
		Build,
	)
	if err != nil {
		return nil, err
	}

	if _, wasBool := e.(Bool); wasBool {
		if _, isBool := out.(Bool); !isBool {
			return nil, InvariantErrorf("substitution turned a boolean into %s", capability(out))
		}
	}
	return out, nil
}

// ComposeArith is Compose for arithmetic expressions.
func ComposeArith(a, with Arith) (Arith, error) {
	out, err := Compose(a, with)
	if err != nil {
		return nil, err
	}
	res, ok := out.(Arith)
	if !ok {
		return nil, InvariantErrorf("substitution turned an arithmetic expression into %s", capability(out))
	}
	return res, nil
}

// ComposeBool is Compose for boolean expressions.
func ComposeBool(b Bool, with Arith) (Bool, error) {
	out, err := Compose(b, with)
	if err != nil {
		return nil, err
	}
	return out.(Bool), nil
}
