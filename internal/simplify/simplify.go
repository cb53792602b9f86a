// Package simplify reduces boolean pipeline conditions with polynomial and
// logical identities.
//
// Comparisons are normalized to GtZero / EqZero over left - right, with
// Lt(l, r) read as Gt(r, l). Atoms whose polynomial is constant resolve to
// expr.True or expr.False. And/Or apply identity, absorption and idempotence,
// plus two polynomial rules: p>0 together with -p>0 is a contradiction, and
// p=0 is the same atom as -p=0.
//
// The pass is a single bottom-up walk. It is not a decision procedure:
// conjunctions and disjunctions outside these rules are kept as they are.
package simplify

import (
	"github.com/roach88/callchain/internal/expr"
	"github.com/roach88/callchain/internal/poly"
)

// Simplify returns the simplified form of b.
func Simplify(b expr.Bool) (expr.Bool, error) {
	type frame struct {
		b        expr.Bool
		expanded bool
	}

	stack := []frame{{b: b}}
	var vals []expr.Bool

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var l, r expr.Bool
		isAnd := false
		switch n := f.b.(type) {
		case expr.And:
			l, r, isAnd = n.L, n.R, true
		case expr.Or:
			l, r = n.L, n.R
		default:
			a, err := Atom(f.b)
			if err != nil {
				return nil, err
			}
			vals = append(vals, a)
			continue
		}

		if !f.expanded {
			stack = append(stack, frame{b: f.b, expanded: true}, frame{b: r}, frame{b: l})
			continue
		}

		sl, sr := vals[len(vals)-2], vals[len(vals)-1]
		vals = vals[:len(vals)-2]
		if isAnd {
			vals = append(vals, and(sl, sr))
		} else {
			vals = append(vals, or(sl, sr))
		}
	}

	return vals[0], nil
}

// Atom normalizes a single comparison. And/Or are rejected; use Simplify.
func Atom(b expr.Bool) (expr.Bool, error) {
	switch n := b.(type) {
	case expr.Gt:
		p, err := difference(n.L, n.R)
		if err != nil {
			return nil, err
		}
		return gtZero(p), nil
	case expr.Lt:
		p, err := difference(n.R, n.L)
		if err != nil {
			return nil, err
		}
		return gtZero(p), nil
	case expr.Eq:
		p, err := difference(n.L, n.R)
		if err != nil {
			return nil, err
		}
		return eqZero(p), nil
	case expr.GtZero:
		return gtZero(n.P), nil
	case expr.EqZero:
		return eqZero(n.P), nil
	case nil:
		return nil, expr.InvariantErrorf("missing boolean operand")
	}
	return nil, expr.InvariantErrorf("%s is not a comparison", b)
}

func difference(l, r expr.Arith) (poly.Polynomial, error) {
	pl, err := expr.ToPolynomial(l)
	if err != nil {
		return poly.Polynomial{}, err
	}
	pr, err := expr.ToPolynomial(r)
	if err != nil {
		return poly.Polynomial{}, err
	}
	return poly.Sub(pl, pr), nil
}

// gtZero resolves p > 0 when p is constant.
func gtZero(p poly.Polynomial) expr.Bool {
	switch p.Degree() {
	case -1:
		return expr.False
	case 0:
		if p.Coeff(0).Sign() > 0 {
			return expr.True
		}
		return expr.False
	}
	return expr.GtZero{P: p}
}

// eqZero resolves p = 0 when p is constant.
func eqZero(p poly.Polynomial) expr.Bool {
	switch p.Degree() {
	case -1:
		return expr.True
	case 0:
		// Trimmed, so a degree-0 coefficient is never zero.
		return expr.False
	}
	return expr.EqZero{P: p}
}

func and(l, r expr.Bool) expr.Bool {
	switch {
	case expr.IsFalse(l) || expr.IsFalse(r):
		return expr.False
	case expr.IsTrue(l):
		return r
	case expr.IsTrue(r):
		return l
	case expr.Equal(l, r):
		return l
	}

	if gl, ok := l.(expr.GtZero); ok {
		if gr, ok := r.(expr.GtZero); ok && gl.P.NegEqual(gr.P) {
			return expr.False
		}
	}
	if sameZeroSet(l, r) {
		return l
	}
	return expr.And{L: l, R: r}
}

func or(l, r expr.Bool) expr.Bool {
	switch {
	case expr.IsFalse(l):
		return r
	case expr.IsFalse(r):
		return l
	case expr.IsTrue(l) || expr.IsTrue(r):
		return expr.True
	case expr.Equal(l, r):
		return l
	}

	// p>0 | -p>0 only fails where p is zero. Treated as a tautology.
	if gl, ok := l.(expr.GtZero); ok {
		if gr, ok := r.(expr.GtZero); ok && gl.P.NegEqual(gr.P) {
			return expr.True
		}
	}
	if sameZeroSet(l, r) {
		return l
	}
	return expr.Or{L: l, R: r}
}

// sameZeroSet reports two EqZero atoms whose polynomials are equal or negated.
func sameZeroSet(l, r expr.Bool) bool {
	el, ok := l.(expr.EqZero)
	if !ok {
		return false
	}
	er, ok := r.(expr.EqZero)
	if !ok {
		return false
	}
	return el.P.Equal(er.P) || el.P.NegEqual(er.P)
}
