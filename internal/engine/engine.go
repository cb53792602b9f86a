package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/callchain/internal/chain"
	"github.com/roach88/callchain/internal/expr"
	"github.com/roach88/callchain/internal/ir"
	"github.com/roach88/callchain/internal/parser"
	"github.com/roach88/callchain/internal/store"
)

// Engine rewrites batches of chain lines and records each result in the
// rewrite log.
//
// Lines are processed one at a time in input order. Every line gets the
// next seq from the clock, including lines that fail, so a batch read back
// with ORDER BY seq matches the input order exactly.
//
// A nil store disables memoization and logging. The engine then behaves
// like a plain loop over Rewrite.
type Engine struct {
	store    *store.Store
	clock    *Clock
	batchGen BatchTokenGenerator
	rawMap   bool
	memo     bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRawMap keeps the fused map tree instead of expanding it to the
// canonical polynomial form.
func WithRawMap() EngineOption {
	return func(e *Engine) {
		e.rawMap = true
	}
}

// WithClock replaces the engine's clock.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithoutMemo makes the engine recompute every line even when the log
// already holds a result for it.
func WithoutMemo() EngineOption {
	return func(e *Engine) {
		e.memo = false
	}
}

// New creates an Engine. A nil batchGen defaults to UUIDv7Generator.
func New(s *store.Store, batchGen BatchTokenGenerator, opts ...EngineOption) *Engine {
	if batchGen == nil {
		batchGen = UUIDv7Generator{}
	}
	e := &Engine{
		store:    s,
		clock:    NewClock(),
		batchGen: batchGen,
		memo:     true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resume creates an Engine whose clock continues after the highest seq in
// the log, so new batches never reuse a seq.
func Resume(ctx context.Context, s *store.Store, batchGen BatchTokenGenerator, opts ...EngineOption) (*Engine, error) {
	last, err := s.LastSeq(ctx)
	if err != nil {
		return nil, storeError("", 0, "failed to read last seq", err)
	}
	opts = append([]EngineOption{WithClock(NewClockAt(last))}, opts...)
	return New(s, batchGen, opts...), nil
}

// Mode reports the rewrite mode, ir.ModeCanonical or ir.ModeRaw.
func (e *Engine) Mode() string {
	if e.rawMap {
		return ir.ModeRaw
	}
	return ir.ModeCanonical
}

// Clock returns the engine's clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Rewrite parses one line and reorders it. It touches neither the clock
// nor the store.
func (e *Engine) Rewrite(text string) (string, error) {
	return rewriteText(text, e.Mode())
}

func rewriteText(text, mode string) (string, error) {
	c, err := parser.ParseChain(text)
	if err != nil {
		return "", err
	}
	var opts []chain.Option
	if mode == ir.ModeRaw {
		opts = append(opts, chain.WithRawMap())
	}
	out, err := chain.Reorder(c, opts...)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// Outcome is the result of one line of a batch.
type Outcome struct {
	Seq       int64  `json:"seq"`
	ID        string `json:"id,omitempty"`
	Input     string `json:"input"`
	Output    string `json:"output,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Memoized  bool   `json:"memoized,omitempty"`

	// Err is the rewrite error. Nil for memoized failures, which only
	// carry their kind.
	Err error `json:"-"`
}

// Failed reports whether the line was rejected.
func (o Outcome) Failed() bool {
	return o.ErrorKind != ir.ErrorKindNone
}

// BatchResult holds the outcomes of one Process call in input order.
type BatchResult struct {
	Batch    string    `json:"batch"`
	Outcomes []Outcome `json:"outcomes"`
}

// Failed counts rejected lines.
func (r BatchResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Process rewrites every line as one batch.
//
// A rejected line is recorded with its error kind and processing moves on
// to the next line. Only store failures and context cancellation abort the
// batch; outcomes already produced are returned alongside the error.
func (e *Engine) Process(ctx context.Context, lines []string) (BatchResult, error) {
	result := BatchResult{
		Batch:    e.batchGen.Generate(),
		Outcomes: make([]Outcome, 0, len(lines)),
	}
	mode := e.Mode()

	slog.Info("batch starting",
		"batch", result.Batch,
		"lines", len(lines),
		"mode", mode,
	)

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		out, err := e.processLine(ctx, result.Batch, line, mode)
		if err != nil {
			return result, err
		}
		result.Outcomes = append(result.Outcomes, out)
	}

	slog.Info("batch finished",
		"batch", result.Batch,
		"lines", len(result.Outcomes),
		"failed", result.Failed(),
	)
	return result, nil
}

func (e *Engine) processLine(ctx context.Context, batch, line, mode string) (Outcome, error) {
	out := Outcome{Seq: e.clock.Next(), Input: line}

	hash, err := ir.ChainHash(line, mode)
	if err != nil {
		return out, storeError(batch, out.Seq, "failed to hash input", err)
	}

	if e.store != nil && e.memo {
		prev, found, err := e.store.LookupOutput(ctx, hash)
		if err != nil {
			return out, storeError(batch, out.Seq, "memo lookup failed", err)
		}
		if found {
			out.Output = prev.Output
			out.ErrorKind = prev.ErrorKind
			out.Memoized = true
			slog.Debug("memo hit",
				"batch", batch,
				"seq", out.Seq,
				"from_seq", prev.Seq,
			)
		}
	}

	if !out.Memoized {
		output, err := rewriteText(line, mode)
		if err != nil {
			out.Err = err
			out.ErrorKind = errorKind(err)
			slog.Debug("line rejected",
				"batch", batch,
				"seq", out.Seq,
				"kind", out.ErrorKind,
				"error", err,
			)
		} else {
			out.Output = output
		}
	}

	if e.store == nil {
		return out, nil
	}

	id, err := ir.RewriteID(hash, batch, out.Seq)
	if err != nil {
		return out, storeError(batch, out.Seq, "failed to compute rewrite id", err)
	}
	out.ID = id

	inserted, err := e.store.WriteRewrite(ctx, ir.Rewrite{
		ID:        id,
		Batch:     batch,
		Seq:       out.Seq,
		InputHash: hash,
		Mode:      mode,
		Input:     line,
		Output:    out.Output,
		ErrorKind: out.ErrorKind,
	})
	if err != nil {
		return out, storeError(batch, out.Seq, "failed to write rewrite", err)
	}
	if !inserted {
		slog.Warn("rewrite already recorded",
			"batch", batch,
			"seq", out.Seq,
			"id", id,
		)
	}
	return out, nil
}

// errorKind maps a rewrite error to the kind recorded in the log.
// Anything that is not an *expr.Error is a broken invariant.
func errorKind(err error) string {
	if kind, ok := expr.KindOf(err); ok {
		return string(kind)
	}
	return ir.ErrorKindInvariant
}
