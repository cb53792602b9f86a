// Package chain models map/filter pipelines and rewrites them into the
// canonical two-step form: one filter followed by one map.
//
// Reorder fuses every map into a single composition and pushes every filter
// in front of the maps by substituting the maps that preceded it into its
// condition. The conjunction of all pushed-down conditions is simplified
// once.
package chain

import (
	"strings"

	"github.com/roach88/callchain/internal/expr"
)

// Separator joins steps in the text form of a chain.
const Separator = "%>%"

// Call is one pipeline step: Map or Filter.
type Call interface {
	call() // Sealed
	String() string
}

// Map replaces the current value with Expr.
type Map struct {
	Expr expr.Arith
}

// Filter drops values for which Cond is false.
type Filter struct {
	Cond expr.Bool
}

func (Map) call()    {}
func (Filter) call() {}

// String renders map{<expr>}.
func (m Map) String() string { return "map{" + expr.Format(m.Expr) + "}" }

// String renders filter{<expr>}.
func (f Filter) String() string { return "filter{" + expr.Format(f.Cond) + "}" }

// Chain is an ordered sequence of calls.
type Chain []Call

// String joins the steps with Separator. The empty chain prints as "".
func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, step := range c {
		parts[i] = step.String()
	}
	return strings.Join(parts, Separator)
}

// Maps returns the number of map steps.
func (c Chain) Maps() int {
	n := 0
	for _, step := range c {
		if _, ok := step.(Map); ok {
			n++
		}
	}
	return n
}

// IsCanonical reports whether c has the [Filter, Map] shape Reorder emits.
func (c Chain) IsCanonical() bool {
	if len(c) != 2 {
		return false
	}
	_, f := c[0].(Filter)
	_, m := c[1].(Map)
	return f && m
}

// Canonical returns the filter condition and map expression of a canonical chain.
func (c Chain) Canonical() (expr.Bool, expr.Arith, error) {
	if !c.IsCanonical() {
		return nil, nil, expr.InvariantErrorf("chain %q is not of the form filter%smap", c.String(), Separator)
	}
	return c[0].(Filter).Cond, c[1].(Map).Expr, nil
}
