package expr

import (
	"math/big"

	"github.com/roach88/callchain/internal/poly"
)

// Expr is a sealed interface over all expression nodes.
// Only the variants declared in this package implement it.
type Expr interface {
	exprNode() // Sealed
	String() string
}

// Arith marks expressions that evaluate to an integer.
type Arith interface {
	Expr
	arith()
}

// Bool marks expressions that evaluate to true or false.
type Bool interface {
	Expr
	boolean()
}

// Element is the placeholder for the pipeline's current value.
type Element struct{}

// Constant is an arbitrary-precision integer literal.
// The zero value is the constant 0.
type Constant struct {
	v *big.Int
}

// NewConstant copies v into a Constant.
func NewConstant(v *big.Int) Constant {
	if v == nil {
		return Constant{v: new(big.Int)}
	}
	return Constant{v: new(big.Int).Set(v)}
}

// Int returns the constant n.
func Int(n int64) Constant {
	return Constant{v: big.NewInt(n)}
}

// Value returns a copy of the literal.
func (c Constant) Value() *big.Int {
	if c.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(c.v)
}

// Plus is L + R.
type Plus struct{ L, R Arith }

// Minus is L - R.
type Minus struct{ L, R Arith }

// Mult is L * R.
type Mult struct{ L, R Arith }

// Gt is L > R.
type Gt struct{ L, R Arith }

// Lt is L < R.
type Lt struct{ L, R Arith }

// Eq is L = R.
type Eq struct{ L, R Arith }

// And is the conjunction of L and R.
type And struct{ L, R Bool }

// Or is the disjunction of L and R.
type Or struct{ L, R Bool }

// GtZero is the normalized comparison P > 0.
type GtZero struct{ P poly.Polynomial }

// EqZero is the normalized comparison P = 0.
type EqZero struct{ P poly.Polynomial }

func (Element) exprNode()  {}
func (Constant) exprNode() {}
func (Plus) exprNode()     {}
func (Minus) exprNode()    {}
func (Mult) exprNode()     {}
func (Gt) exprNode()       {}
func (Lt) exprNode()       {}
func (Eq) exprNode()       {}
func (And) exprNode()      {}
func (Or) exprNode()       {}
func (GtZero) exprNode()   {}
func (EqZero) exprNode()   {}

func (Element) arith()  {}
func (Constant) arith() {}
func (Plus) arith()     {}
func (Minus) arith()    {}
func (Mult) arith()     {}

func (Gt) boolean()     {}
func (Lt) boolean()     {}
func (Eq) boolean()     {}
func (And) boolean()    {}
func (Or) boolean()     {}
func (GtZero) boolean() {}
func (EqZero) boolean() {}

func (e Element) String() string  { return Format(e) }
func (e Constant) String() string { return Format(e) }
func (e Plus) String() string     { return Format(e) }
func (e Minus) String() string    { return Format(e) }
func (e Mult) String() string     { return Format(e) }
func (e Gt) String() string       { return Format(e) }
func (e Lt) String() string       { return Format(e) }
func (e Eq) String() string       { return Format(e) }
func (e And) String() string      { return Format(e) }
func (e Or) String() string       { return Format(e) }
func (e GtZero) String() string   { return Format(e) }
func (e EqZero) String() string   { return Format(e) }

// True and False are the canonical boolean sentinels. They print as (1=1)
// and (1=0) so that simplified output can be parsed back.
var (
	True  Bool = Eq{L: Int(1), R: Int(1)}
	False Bool = Eq{L: Int(1), R: Int(0)}
)

// IsTrue reports whether b is structurally the True sentinel.
func IsTrue(b Bool) bool { return Equal(b, True) }

// IsFalse reports whether b is structurally the False sentinel.
func IsFalse(b Bool) bool { return Equal(b, False) }

// Operator tokens accepted by Build.
const (
	OpPlus  = "+"
	OpMinus = "-"
	OpMult  = "*"
	OpGt    = ">"
	OpLt    = "<"
	OpEq    = "="
	OpAnd   = "&"
	OpOr    = "|"
)

// IsOperator reports whether c is one of the eight binary operator characters.
func IsOperator(c byte) bool {
	switch c {
	case '+', '-', '*', '>', '<', '=', '&', '|':
		return true
	}
	return false
}

// operands splits a binary node into its operator and children.
// ok is false for leaves (Element, Constant, GtZero, EqZero) and for nil.
func operands(e Expr) (op string, l, r Expr, ok bool) {
	switch n := e.(type) {
	case Plus:
		return OpPlus, n.L, n.R, true
	case Minus:
		return OpMinus, n.L, n.R, true
	case Mult:
		return OpMult, n.L, n.R, true
	case Gt:
		return OpGt, n.L, n.R, true
	case Lt:
		return OpLt, n.L, n.R, true
	case Eq:
		return OpEq, n.L, n.R, true
	case And:
		return OpAnd, n.L, n.R, true
	case Or:
		return OpOr, n.L, n.R, true
	}
	return "", nil, nil, false
}

// Operands exposes the operator and children of a binary node.
func Operands(e Expr) (op string, l, r Expr, ok bool) {
	return operands(e)
}
