package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/callchain/internal/chain"
	"github.com/roach88/callchain/internal/engine"
	"github.com/roach88/callchain/internal/ir"
	"github.com/roach88/callchain/internal/parser"
	"github.com/roach88/callchain/internal/store"
)

// DefaultSamples is the verify range used when a suite sets none.
var DefaultSamples = SampleRange{Min: -20, Max: 20}

var errorKinds = map[string]string{
	ErrorSyntax:    ir.ErrorKindSyntax,
	ErrorType:      ir.ErrorKindType,
	ErrorInvariant: ir.ErrorKindInvariant,
}

// Run executes a suite and checks every case.
//
// Each suite runs in a fresh in-memory store through the real engine, with
// a fixed batch token, so the trace is identical on every run. After the
// batch the suite is replayed from the store; any replay mismatch fails
// the suite.
//
// The returned error is reserved for harness failures. Unmet expectations
// are reported in Result.Errors.
func Run(suite *Suite) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	token := suite.BatchToken
	if token == "" {
		token = "batch-" + suite.Name
	}

	var opts []engine.EngineOption
	if suite.RawMap {
		opts = append(opts, engine.WithRawMap())
	}
	eng := engine.New(st, engine.NewFixedGenerator(token), opts...)

	lines := make([]string, len(suite.Cases))
	for i, c := range suite.Cases {
		lines[i] = c.Input
	}

	ctx := context.Background()
	batch, err := eng.Process(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("failed to process suite %q: %w", suite.Name, err)
	}

	result := NewResult()
	result.Batch = batch.Batch

	samples := DefaultSamples
	if suite.Samples != nil {
		samples = *suite.Samples
	}

	for i, c := range suite.Cases {
		out := batch.Outcomes[i]
		result.Trace = append(result.Trace, TraceEvent{
			Seq:       out.Seq,
			Case:      c.Name,
			Input:     out.Input,
			Output:    out.Output,
			ErrorKind: out.ErrorKind,
			Memoized:  out.Memoized,
		})
		checkCase(result, c, out, samples)
	}

	replay, err := eng.Replay(ctx, batch.Batch)
	if err != nil {
		return nil, fmt.Errorf("failed to replay suite %q: %w", suite.Name, err)
	}
	for _, m := range replay.Mismatches {
		result.AddError(fmt.Sprintf("replay seq %d: recorded %q, recomputed %q", m.Seq, m.Recorded, m.Recomputed))
	}

	return result, nil
}

func checkCase(result *Result, c Case, out engine.Outcome, samples SampleRange) {
	if c.Error != "" {
		want := errorKinds[c.Error]
		if out.ErrorKind != want {
			result.AddError(fmt.Sprintf("%s: expected %s, got %s", c.Name, want, describe(out)))
		}
		return
	}

	if out.Failed() {
		result.AddError(fmt.Sprintf("%s: unexpected %s", c.Name, describe(out)))
		return
	}
	if c.Expect != "" && out.Output != c.Expect {
		result.AddError(fmt.Sprintf("%s: expected %q, got %q", c.Name, c.Expect, out.Output))
	}
	if c.Verify {
		if err := verifyCase(out.Input, out.Output, samples); err != nil {
			result.AddError(fmt.Sprintf("%s: %v", c.Name, err))
		}
	}
}

// verifyCase checks the rewrite against the input on every sample.
func verifyCase(input, output string, samples SampleRange) error {
	original, err := parser.ParseChain(input)
	if err != nil {
		return fmt.Errorf("reparse input: %w", err)
	}
	rewritten, err := parser.ParseChain(output)
	if err != nil {
		return fmt.Errorf("reparse output: %w", err)
	}
	if !rewritten.IsCanonical() {
		return errors.New("output is not a single filter followed by a single map")
	}
	xs, err := chain.Range(samples.Min, samples.Max)
	if err != nil {
		return err
	}
	return chain.Verify(original, rewritten, xs)
}

func describe(out engine.Outcome) string {
	if out.Failed() {
		return out.ErrorKind
	}
	return fmt.Sprintf("output %q", out.Output)
}
