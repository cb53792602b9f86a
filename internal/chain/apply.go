package chain

import (
	"fmt"
	"math/big"

	"github.com/roach88/callchain/internal/expr"
)

// Apply runs c over a single input value. accepted is false as soon as a
// filter rejects the value; value is then the last value seen.
func Apply(c Chain, x *big.Int) (value *big.Int, accepted bool, err error) {
	cur := new(big.Int).Set(x)
	for i, step := range c {
		switch s := step.(type) {
		case Map:
			cur, err = expr.EvalArith(s.Expr, cur)
			if err != nil {
				return nil, false, fmt.Errorf("step %d: %w", i, err)
			}
		case Filter:
			ok, err := expr.EvalBool(s.Cond, cur)
			if err != nil {
				return nil, false, fmt.Errorf("step %d: %w", i, err)
			}
			if !ok {
				return cur, false, nil
			}
		default:
			return nil, false, expr.InvariantErrorf("step %d: unknown call %T", i, step)
		}
	}
	return cur, true, nil
}

// MismatchError reports the first input on which two chains disagree.
type MismatchError struct {
	// X is the input value.
	X *big.Int

	// Original and Rewritten are the outcomes of each chain on X.
	OriginalAccepted, RewrittenAccepted bool
	OriginalValue, RewrittenValue       *big.Int
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	if e.OriginalAccepted != e.RewrittenAccepted {
		return fmt.Sprintf("chains disagree at %s: original accepted=%t, rewritten accepted=%t",
			e.X, e.OriginalAccepted, e.RewrittenAccepted)
	}
	return fmt.Sprintf("chains disagree at %s: original=%s, rewritten=%s",
		e.X, e.OriginalValue, e.RewrittenValue)
}

// Verify runs both chains on every sample and returns a *MismatchError for
// the first sample where acceptance or the mapped value differ.
func Verify(original, rewritten Chain, samples []*big.Int) error {
	for _, x := range samples {
		ov, oa, err := Apply(original, x)
		if err != nil {
			return fmt.Errorf("original chain: %w", err)
		}
		rv, ra, err := Apply(rewritten, x)
		if err != nil {
			return fmt.Errorf("rewritten chain: %w", err)
		}

		mismatch := oa != ra || (oa && ov.Cmp(rv) != 0)
		if mismatch {
			return &MismatchError{
				X:                 new(big.Int).Set(x),
				OriginalAccepted:  oa,
				RewrittenAccepted: ra,
				OriginalValue:     ov,
				RewrittenValue:    rv,
			}
		}
	}
	return nil
}

// MaxRangeSamples bounds the number of integers one Range may return.
const MaxRangeSamples = 1_000_000

// Range returns the integers lo..hi inclusive, or nil when lo > hi.
// A span of more than MaxRangeSamples integers is an error.
func Range(lo, hi int64) ([]*big.Int, error) {
	if lo > hi {
		return nil, nil
	}
	// Unsigned subtraction is exact for any lo <= hi.
	span := uint64(hi) - uint64(lo)
	if span >= MaxRangeSamples {
		return nil, fmt.Errorf("range [%d, %d] exceeds %d samples", lo, hi, MaxRangeSamples)
	}
	out := make([]*big.Int, 0, int(span)+1)
	for x := lo; ; x++ {
		out = append(out, big.NewInt(x))
		if x == hi {
			break
		}
	}
	return out, nil
}
