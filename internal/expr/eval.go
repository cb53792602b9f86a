package expr

import "math/big"

// value is an evaluation result: n for arithmetic nodes, b for boolean ones.
type value struct {
	n *big.Int
	b bool
}

func eval(e Expr, x *big.Int) (value, error) {
	return Fold(e,
		func(leaf Expr) (value, error) {
			switch n := leaf.(type) {
			case Element:
				return value{n: new(big.Int).Set(x)}, nil
			case Constant:
				return value{n: n.Value()}, nil
			case GtZero:
				return value{b: n.P.Eval(x).Sign() > 0}, nil
			case EqZero:
				return value{b: n.P.Eval(x).Sign() == 0}, nil
			}
			return value{}, InvariantErrorf("cannot evaluate %s", describe(leaf))
		},
		func(op string, l, r value) (value, error) {
			switch op {
			case OpPlus:
				return value{n: new(big.Int).Add(l.n, r.n)}, nil
			case OpMinus:
				return value{n: new(big.Int).Sub(l.n, r.n)}, nil
			case OpMult:
				return value{n: new(big.Int).Mul(l.n, r.n)}, nil
			case OpGt:
				return value{b: l.n.Cmp(r.n) > 0}, nil
			case OpLt:
				return value{b: l.n.Cmp(r.n) < 0}, nil
			case OpEq:
				return value{b: l.n.Cmp(r.n) == 0}, nil
			case OpAnd:
				return value{b: l.b && r.b}, nil
			case OpOr:
				return value{b: l.b || r.b}, nil
			}
			return value{}, InvariantErrorf("cannot evaluate operator %q", op)
		},
	)
}

// EvalArith evaluates a with Element bound to x.
func EvalArith(a Arith, x *big.Int) (*big.Int, error) {
	v, err := eval(a, x)
	if err != nil {
		return nil, err
	}
	return v.n, nil
}

// EvalBool evaluates b with Element bound to x.
func EvalBool(b Bool, x *big.Int) (bool, error) {
	v, err := eval(b, x)
	if err != nil {
		return false, err
	}
	return v.b, nil
}
