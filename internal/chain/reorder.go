package chain

import (
	"fmt"

	"github.com/roach88/callchain/internal/expr"
	"github.com/roach88/callchain/internal/simplify"
)

// Option configures Reorder.
type Option func(*options)

type options struct {
	rawMap bool
}

// WithRawMap keeps the fused map as a composition tree instead of emitting
// its canonical polynomial form.
func WithRawMap() Option {
	return func(o *options) {
		o.rawMap = true
	}
}

// UsesRawMap reports whether opts include WithRawMap.
func UsesRawMap(opts ...Option) bool {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o.rawMap
}

// Reorder rewrites c into [Filter(cond), Map(m)].
//
// M[i] is the composition of the first i+1 maps. A filter seen after k maps
// has M[k-1] substituted into its condition. The conditions are conjoined in
// chain order and simplified. With no filters the condition is expr.True,
// with no maps the map is expr.Element. The empty chain yields
// filter{(1=1)}%>%map{element}.
func Reorder(c Chain, opts ...Option) (Chain, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		fused    expr.Arith // M[seen-1]; nil until the first map
		cond     expr.Bool  // conjunction of pushed-down filters
		seenMaps int
	)

	for i, step := range c {
		switch s := step.(type) {
		case Map:
			if s.Expr == nil {
				return nil, expr.InvariantErrorf("step %d: map has no expression", i)
			}
			next := s.Expr
			if seenMaps > 0 {
				var err error
				next, err = expr.ComposeArith(s.Expr, fused)
				if err != nil {
					return nil, fmt.Errorf("step %d: fusing map: %w", i, err)
				}
			}
			// Canonical prefixes keep the fused tree linear in its degree.
			if !o.rawMap {
				var err error
				next, err = expr.Canonical(next)
				if err != nil {
					return nil, fmt.Errorf("step %d: canonicalizing map: %w", i, err)
				}
			}
			fused = next
			seenMaps++

		case Filter:
			if s.Cond == nil {
				return nil, expr.InvariantErrorf("step %d: filter has no condition", i)
			}
			pushed := s.Cond
			if seenMaps > 0 {
				var err error
				pushed, err = expr.ComposeBool(s.Cond, fused)
				if err != nil {
					return nil, fmt.Errorf("step %d: pushing filter down: %w", i, err)
				}
			}
			if cond == nil {
				cond = pushed
			} else {
				cond = expr.And{L: cond, R: pushed}
			}

		default:
			return nil, expr.InvariantErrorf("step %d: unknown call %T", i, step)
		}
	}

	filter := expr.True
	if cond != nil {
		var err error
		filter, err = simplify.Simplify(cond)
		if err != nil {
			return nil, fmt.Errorf("simplifying filter: %w", err)
		}
	}

	var final expr.Arith = expr.Element{}
	if fused != nil {
		final = fused
	}

	return Chain{Filter{Cond: filter}, Map{Expr: final}}, nil
}
