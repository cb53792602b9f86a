package expr

import (
	"math/big"

	"github.com/roach88/callchain/internal/poly"
)

// ToPolynomial linearizes an arithmetic expression into canonical form.
// Element becomes [0 1], Constant(k) becomes [k], Plus and Minus combine
// coefficient-wise and Mult convolves.
func ToPolynomial(a Arith) (poly.Polynomial, error) {
	return Fold(Expr(a),
		func(e Expr) (poly.Polynomial, error) {
			switch n := e.(type) {
			case Element:
				return poly.Variable(), nil
			case Constant:
				return poly.Constant(n.Value()), nil
			}
			return poly.Polynomial{}, InvariantErrorf("%s is not arithmetic", describe(e))
		},
		func(op string, l, r poly.Polynomial) (poly.Polynomial, error) {
			switch op {
			case OpPlus:
				return poly.Add(l, r), nil
			case OpMinus:
				return poly.Sub(l, r), nil
			case OpMult:
				return poly.Mul(l, r), nil
			}
			return poly.Polynomial{}, InvariantErrorf("operator %q inside an arithmetic expression", op)
		},
	)
}

// FromPolynomial rebuilds the canonical expression for p: a left-nested sum
// of its non-zero terms, lowest power first. The zero polynomial is the
// constant 0.
//
//	[100 20 1] -> ((100+(20*element))+(element*element))
func FromPolynomial(p poly.Polynomial) Arith {
	var sum Arith
	one := big.NewInt(1)

	for k := 0; k <= p.Degree(); k++ {
		c := p.Coeff(k)
		if c.Sign() == 0 {
			continue
		}

		var term Arith
		if k == 0 {
			term = NewConstant(c)
		} else {
			var power Arith = Element{}
			for i := 1; i < k; i++ {
				power = Mult{L: Element{}, R: power}
			}
			term = power
			if c.Cmp(one) != 0 {
				term = Mult{L: NewConstant(c), R: power}
			}
		}

		if sum == nil {
			sum = term
		} else {
			sum = Plus{L: sum, R: term}
		}
	}

	if sum == nil {
		return Int(0)
	}
	return sum
}

// Canonical returns FromPolynomial(ToPolynomial(a)).
func Canonical(a Arith) (Arith, error) {
	p, err := ToPolynomial(a)
	if err != nil {
		return nil, err
	}
	return FromPolynomial(p), nil
}

// describe names a node for error messages without printing a whole subtree.
func describe(e Expr) string {
	switch e.(type) {
	case nil:
		return "missing operand"
	case GtZero:
		return "normalized comparison (>0)"
	case EqZero:
		return "normalized comparison (=0)"
	}
	if op, _, _, ok := operands(e); ok {
		return "operator " + op
	}
	return e.String()
}
