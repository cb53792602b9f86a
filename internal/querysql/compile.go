// Package querysql renders a canonical chain as a SQLite query over a table
// of integers.
//
// A chain filter{B}%>%map{A} over a column x becomes
//
//	SELECT A(x) AS value FROM table WHERE B(x) ORDER BY rowid ASC
//
// Every constant is bound as a parameter, never interpolated. Identifiers
// are restricted to [A-Za-z_][A-Za-z0-9_]*.
//
// SQLite evaluates integer arithmetic in 64 bits and switches to floating
// point on overflow, so results match chain.Apply only while every
// intermediate value fits in an int64.
package querysql

import (
	"fmt"

	"github.com/roach88/callchain/internal/chain"
	"github.com/roach88/callchain/internal/expr"
)

// SQLCompiler compiles canonical chains against one table column.
type SQLCompiler struct {
	Table  string
	Column string
}

// NewSQLCompiler creates a compiler for table.column.
func NewSQLCompiler(table, column string) *SQLCompiler {
	return &SQLCompiler{Table: table, Column: column}
}

// Compile is shorthand for NewSQLCompiler(table, column).Compile(c).
func Compile(c chain.Chain, table, column string) (string, []any, error) {
	return NewSQLCompiler(table, column).Compile(c)
}

// Compile converts a canonical [Filter, Map] chain to parameterized SQL.
// Returns (sql, params, error). Params appear in the order of their
// placeholders: map constants first, then filter constants.
func (c *SQLCompiler) Compile(ch chain.Chain) (string, []any, error) {
	if !validIdent(c.Table) {
		return "", nil, fmt.Errorf("invalid table name %q", c.Table)
	}
	if !validIdent(c.Column) {
		return "", nil, fmt.Errorf("invalid column name %q", c.Column)
	}

	cond, m, err := ch.Canonical()
	if err != nil {
		return "", nil, fmt.Errorf("compile: %w", err)
	}

	mapSQL, err := c.compileExpr(m)
	if err != nil {
		return "", nil, fmt.Errorf("compile map: %w", err)
	}
	filterSQL, err := c.compileExpr(cond)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}

	sql := fmt.Sprintf("SELECT %s AS value FROM %s WHERE %s ORDER BY rowid ASC",
		mapSQL.sql,
		c.Table,
		filterSQL.sql)

	params := append(mapSQL.params, filterSQL.params...)
	return sql, params, nil
}

// fragment is a piece of SQL with its bound parameters in order.
type fragment struct {
	sql    string
	params []any
}

var sqlOperators = map[string]string{
	expr.OpPlus:  "+",
	expr.OpMinus: "-",
	expr.OpMult:  "*",
	expr.OpGt:    ">",
	expr.OpLt:    "<",
	expr.OpEq:    "=",
	expr.OpAnd:   "AND",
	expr.OpOr:    "OR",
}

// compileExpr renders e bottom-up with expr.Fold.
func (c *SQLCompiler) compileExpr(e expr.Expr) (fragment, error) {
	return expr.Fold(e, c.compileLeaf, func(op string, l, r fragment) (fragment, error) {
		sqlOp, ok := sqlOperators[op]
		if !ok {
			return fragment{}, expr.InvariantErrorf("no SQL operator for %q", op)
		}
		params := make([]any, 0, len(l.params)+len(r.params))
		params = append(params, l.params...)
		params = append(params, r.params...)
		return fragment{
			sql:    fmt.Sprintf("(%s %s %s)", l.sql, sqlOp, r.sql),
			params: params,
		}, nil
	})
}

func (c *SQLCompiler) compileLeaf(e expr.Expr) (fragment, error) {
	switch v := e.(type) {
	case expr.Element:
		return fragment{sql: c.Column}, nil
	case expr.Constant:
		n := v.Value()
		if !n.IsInt64() {
			return fragment{}, fmt.Errorf("constant %s does not fit in a SQLite integer", n)
		}
		return fragment{sql: "?", params: []any{n.Int64()}}, nil
	case expr.GtZero:
		return c.compileAtom(expr.FromPolynomial(v.P), ">")
	case expr.EqZero:
		return c.compileAtom(expr.FromPolynomial(v.P), "=")
	default:
		return fragment{}, expr.InvariantErrorf("cannot compile %T to SQL", e)
	}
}

// compileAtom renders a normalized atom as (poly op 0).
func (c *SQLCompiler) compileAtom(p expr.Arith, op string) (fragment, error) {
	f, err := c.compileExpr(p)
	if err != nil {
		return fragment{}, err
	}
	f.sql = fmt.Sprintf("(%s %s ?)", f.sql, op)
	f.params = append(f.params, int64(0))
	return f, nil
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '_', ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
