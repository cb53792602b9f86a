// Package parser reads the text form of pipelines.
//
// Grammar:
//
//	chain := step ('%>%' step)*
//	step  := 'map{' expr '}' | 'filter{' expr '}'
//	expr  := 'element' | '-'? digit+ | '(' expr op expr ')'
//	op    := '+' | '-' | '*' | '>' | '<' | '=' | '&' | '|'
//
// Binary forms are fully parenthesized and whitespace is not allowed. The
// expression parser is a single left-to-right shift/reduce pass over an
// explicit stack of open parentheses, so operand boundaries follow the
// parenthesis nesting and nesting depth is bounded only by memory.
//
// All errors are *expr.Error values. Offsets are byte offsets into the text
// passed to the exported function.
package parser

import (
	"errors"
	"math/big"
	"strings"

	"github.com/roach88/callchain/internal/chain"
	"github.com/roach88/callchain/internal/expr"
)

const (
	elementToken = "element"
	mapPrefix    = "map{"
	filterPrefix = "filter{"
	stepSuffix   = "}"
)

// ParseChain parses steps joined by %>%. Empty text is a syntax error.
func ParseChain(s string) (chain.Chain, error) {
	if s == "" {
		return nil, expr.SyntaxErrorf(0, "empty chain")
	}

	var out chain.Chain
	start := 0
	for {
		end := strings.Index(s[start:], chain.Separator)
		if end < 0 {
			end = len(s)
		} else {
			end += start
		}

		call, err := parseCallAt(s[start:end], start)
		if err != nil {
			return nil, err
		}
		out = append(out, call)

		if end == len(s) {
			return out, nil
		}
		start = end + len(chain.Separator)
	}
}

// ParseCall parses a single map{...} or filter{...} step.
func ParseCall(s string) (chain.Call, error) {
	return parseCallAt(s, 0)
}

func parseCallAt(s string, base int) (chain.Call, error) {
	var prefix string
	switch {
	case strings.HasPrefix(s, mapPrefix):
		prefix = mapPrefix
	case strings.HasPrefix(s, filterPrefix):
		prefix = filterPrefix
	default:
		return nil, expr.SyntaxErrorf(base, "expected map{ or filter{")
	}

	if !strings.HasSuffix(s, stepSuffix) || len(s) == len(prefix) {
		return nil, expr.SyntaxErrorf(base+len(s), "unterminated %s step", strings.TrimSuffix(prefix, "{"))
	}

	body := s[len(prefix) : len(s)-len(stepSuffix)]
	e, err := parseExprAt(body, base+len(prefix))
	if err != nil {
		return nil, err
	}

	if prefix == mapPrefix {
		a, ok := e.(expr.Arith)
		if !ok {
			return nil, typeErrorAt(base, "map needs an arithmetic expression, got %s", e)
		}
		return chain.Map{Expr: a}, nil
	}

	b, ok := e.(expr.Bool)
	if !ok {
		return nil, typeErrorAt(base, "filter needs a boolean condition, got %s", e)
	}
	return chain.Filter{Cond: b}, nil
}

// ParseExpr parses a single expression.
func ParseExpr(s string) (expr.Expr, error) {
	return parseExprAt(s, 0)
}

type state int

const (
	wantOperand state = iota
	wantOperator
	wantClose
	wantEnd
)

// open is a '(' waiting for its operands, operator and ')'.
type open struct {
	left  expr.Expr
	right expr.Expr
	op    string
	opPos int
}

func parseExprAt(s string, base int) (expr.Expr, error) {
	var (
		stack  []open
		result expr.Expr
		st     = wantOperand
		pos    = 0
	)

	// place hands a finished operand to the innermost open parenthesis.
	place := func(e expr.Expr) {
		if len(stack) == 0 {
			result = e
			st = wantEnd
			return
		}
		top := &stack[len(stack)-1]
		if top.left == nil {
			top.left = e
			st = wantOperator
			return
		}
		top.right = e
		st = wantClose
	}

	for pos < len(s) {
		c := s[pos]
		switch st {
		case wantOperand:
			switch {
			case c == '(':
				stack = append(stack, open{})
				pos++
			case strings.HasPrefix(s[pos:], elementToken):
				pos += len(elementToken)
				place(expr.Element{})
			case isDigit(c) || (c == '-' && pos+1 < len(s) && isDigit(s[pos+1])):
				end := pos + 1
				for end < len(s) && isDigit(s[end]) {
					end++
				}
				v, ok := new(big.Int).SetString(s[pos:end], 10)
				if !ok {
					return nil, expr.SyntaxErrorf(base+pos, "invalid integer %q", s[pos:end])
				}
				pos = end
				place(expr.NewConstant(v))
			default:
				return nil, expr.SyntaxErrorf(base+pos, "expected operand, found %q", c)
			}

		case wantOperator:
			if !expr.IsOperator(c) {
				return nil, expr.SyntaxErrorf(base+pos, "expected operator, found %q", c)
			}
			top := &stack[len(stack)-1]
			top.op = string(c)
			top.opPos = pos
			pos++
			st = wantOperand

		case wantClose:
			if c != ')' {
				return nil, expr.SyntaxErrorf(base+pos, "expected ')', found %q", c)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pos++

			node, err := expr.Build(top.op, top.left, top.right)
			if err != nil {
				return nil, at(err, base+top.opPos)
			}
			place(node)

		case wantEnd:
			return nil, expr.SyntaxErrorf(base+pos, "unexpected trailing input %q", s[pos:])
		}
	}

	if st != wantEnd {
		if len(s) == 0 {
			return nil, expr.SyntaxErrorf(base, "empty expression")
		}
		return nil, expr.SyntaxErrorf(base+len(s), "unexpected end of expression")
	}
	return result, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// at stamps an offset on an *expr.Error that has none.
func at(err error, offset int) error {
	var e *expr.Error
	if errors.As(err, &e) && e.Offset < 0 {
		e.Offset = offset
	}
	return err
}

func typeErrorAt(offset int, format string, args ...any) error {
	e := expr.TypeErrorf(format, args...)
	e.Offset = offset
	return e
}
