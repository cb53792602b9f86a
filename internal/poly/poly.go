package poly

import (
	"math/big"
	"strings"
)

// Polynomial is an immutable trimmed coefficient vector.
// coeffs[i] is the coefficient of element^i. The zero polynomial has no coefficients.
type Polynomial struct {
	coeffs []*big.Int
}

// Zero returns the additive identity.
func Zero() Polynomial {
	return Polynomial{}
}

// Constant returns the degree-0 polynomial k (or Zero if k == 0).
func Constant(k *big.Int) Polynomial {
	return New(k)
}

// Variable returns the polynomial 0 + 1*element.
func Variable() Polynomial {
	return New(big.NewInt(0), big.NewInt(1))
}

// New builds a polynomial from coefficients ordered by power.
// Inputs are copied and trailing zeros trimmed.
func New(coeffs ...*big.Int) Polynomial {
	cs := make([]*big.Int, len(coeffs))
	for i, c := range coeffs {
		if c == nil {
			cs[i] = new(big.Int)
			continue
		}
		cs[i] = new(big.Int).Set(c)
	}
	return trim(cs)
}

// FromInt64 is New for small literals. Mostly useful in tests.
func FromInt64(coeffs ...int64) Polynomial {
	cs := make([]*big.Int, len(coeffs))
	for i, c := range coeffs {
		cs[i] = big.NewInt(c)
	}
	return trim(cs)
}

// trim drops trailing zero coefficients. Takes ownership of cs.
func trim(cs []*big.Int) Polynomial {
	n := len(cs)
	for n > 0 && cs[n-1].Sign() == 0 {
		n--
	}
	if n == 0 {
		return Polynomial{}
	}
	return Polynomial{coeffs: cs[:n]}
}

// Degree returns the highest power with a non-zero coefficient, or -1 for zero.
func (p Polynomial) Degree() int {
	return len(p.coeffs) - 1
}

// IsZero reports whether p is the zero polynomial.
func (p Polynomial) IsZero() bool {
	return len(p.coeffs) == 0
}

// Coeff returns a copy of the coefficient of element^i (zero beyond the degree).
func (p Polynomial) Coeff(i int) *big.Int {
	if i < 0 || i >= len(p.coeffs) {
		return new(big.Int)
	}
	return new(big.Int).Set(p.coeffs[i])
}

// Coeffs returns a copy of all coefficients, lowest power first.
func (p Polynomial) Coeffs() []*big.Int {
	out := make([]*big.Int, len(p.coeffs))
	for i, c := range p.coeffs {
		out[i] = new(big.Int).Set(c)
	}
	return out
}

// Add returns p + q.
func Add(p, q Polynomial) Polynomial {
	return combine(p, q, (*big.Int).Add)
}

// Sub returns p - q.
func Sub(p, q Polynomial) Polynomial {
	return combine(p, q, (*big.Int).Sub)
}

// combine applies a coefficient-wise operation over the padded union of lengths.
func combine(p, q Polynomial, op func(z, x, y *big.Int) *big.Int) Polynomial {
	n := len(p.coeffs)
	if len(q.coeffs) > n {
		n = len(q.coeffs)
	}
	cs := make([]*big.Int, n)
	for i := range cs {
		cs[i] = op(new(big.Int), p.coeffAt(i), q.coeffAt(i))
	}
	return trim(cs)
}

// Mul returns p * q by convolution: result[i+j] += p[i]*q[j].
func Mul(p, q Polynomial) Polynomial {
	if p.IsZero() || q.IsZero() {
		return Polynomial{}
	}
	cs := make([]*big.Int, len(p.coeffs)+len(q.coeffs)-1)
	for i := range cs {
		cs[i] = new(big.Int)
	}
	term := new(big.Int)
	for i, a := range p.coeffs {
		for j, b := range q.coeffs {
			cs[i+j].Add(cs[i+j], term.Mul(a, b))
		}
	}
	return trim(cs)
}

// Neg returns -p.
func Neg(p Polynomial) Polynomial {
	cs := make([]*big.Int, len(p.coeffs))
	for i, c := range p.coeffs {
		cs[i] = new(big.Int).Neg(c)
	}
	return Polynomial{coeffs: cs}
}

// coeffAt returns the stored coefficient or a shared zero. Callers must not mutate it.
func (p Polynomial) coeffAt(i int) *big.Int {
	if i < len(p.coeffs) {
		return p.coeffs[i]
	}
	return zero
}

var zero = new(big.Int)

// Equal reports coefficient-wise equality. Polynomials of different degree are never equal.
func (p Polynomial) Equal(q Polynomial) bool {
	if p.Degree() != q.Degree() {
		return false
	}
	for i, c := range p.coeffs {
		if c.Cmp(q.coeffs[i]) != 0 {
			return false
		}
	}
	return true
}

// NegEqual reports whether p == -q coefficient-wise.
// Defined only when degrees match; otherwise false.
func (p Polynomial) NegEqual(q Polynomial) bool {
	if p.Degree() != q.Degree() {
		return false
	}
	neg := new(big.Int)
	for i, c := range p.coeffs {
		if c.Cmp(neg.Neg(q.coeffs[i])) != 0 {
			return false
		}
	}
	return true
}

// Eval evaluates p at x using Horner's scheme.
func (p Polynomial) Eval(x *big.Int) *big.Int {
	acc := new(big.Int)
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, p.coeffs[i])
	}
	return acc
}

// String renders the coefficient vector for diagnostics, e.g. "[0 20 1]".
// The canonical expression text is produced by expr.FromPolynomial.
func (p Polynomial) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range p.coeffs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c.String())
	}
	b.WriteByte(']')
	return b.String()
}
