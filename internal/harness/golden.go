package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/callchain/internal/ir"
)

// TraceSnapshot is the part of a suite run compared against golden files.
type TraceSnapshot struct {
	SuiteName string       `json:"suite_name"`
	Batch     string       `json:"batch"`
	Trace     []TraceEvent `json:"trace"`
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	events := make(ir.Array, len(s.Trace))
	for i, ev := range s.Trace {
		obj := ir.Object{
			"seq":   ir.Int(ev.Seq),
			"case":  ir.String(ev.Case),
			"input": ir.String(ev.Input),
		}
		if ev.Output != "" {
			obj["output"] = ir.String(ev.Output)
		}
		if ev.ErrorKind != "" {
			obj["error_kind"] = ir.String(ev.ErrorKind)
		}
		if ev.Memoized {
			obj["memoized"] = ir.Bool(true)
		}
		events[i] = obj
	}

	return ir.MarshalCanonical(ir.Object{
		"suite_name": ir.String(s.SuiteName),
		"batch":      ir.String(s.Batch),
		"trace":      events,
	})
}

// RunWithGolden runs a suite and compares its trace against
// testdata/golden/<suite name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// The returned error is a harness failure; a trace that differs from the
// golden file fails t through goldie.
func RunWithGolden(t *testing.T, suite *Suite) (*Result, error) {
	t.Helper()

	result, err := Run(suite)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, suite.Name, result); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against the golden file
// named name.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		SuiteName: name,
		Batch:     result.Batch,
		Trace:     result.Trace,
	}
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
