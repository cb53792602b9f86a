package expr

import "strings"

// Format renders e in the fully parenthesized text grammar.
//
//	element | <integer> | (<expr><op><expr>)
//
// Normalized atoms render through their canonical polynomial, e.g.
// GtZero{[-10 1]} prints as ((-10+element)>0).
func Format(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeExpr(b *strings.Builder, root Expr) {
	type item struct {
		e   Expr
		lit string
		raw bool
	}

	stack := []item{{e: root}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if it.raw {
			b.WriteString(it.lit)
			continue
		}

		switch n := it.e.(type) {
		case nil:
			b.WriteString("<nil>")
		case Element:
			b.WriteString("element")
		case Constant:
			b.WriteString(n.Value().String())
		case GtZero:
			b.WriteByte('(')
			writeExpr(b, FromPolynomial(n.P))
			b.WriteString(">0)")
		case EqZero:
			b.WriteByte('(')
			writeExpr(b, FromPolynomial(n.P))
			b.WriteString("=0)")
		default:
			op, l, r, _ := operands(n)
			b.WriteByte('(')
			stack = append(stack,
				item{lit: ")", raw: true},
				item{e: r},
				item{lit: op, raw: true},
				item{e: l},
			)
		}
	}
}
