package engine

import (
	"context"
	"log/slog"
)

// ReplayMismatch describes one row whose recomputed result differs.
type ReplayMismatch struct {
	Seq        int64  `json:"seq"`
	Input      string `json:"input"`
	Recorded   string `json:"recorded"`
	Recomputed string `json:"recomputed"`
}

// ReplayResult summarizes a replay.
type ReplayResult struct {
	Batch      string           `json:"batch"`
	Checked    int              `json:"checked"`
	Mismatches []ReplayMismatch `json:"mismatches"`
}

// OK reports whether every row reproduced.
func (r ReplayResult) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay recomputes every rewrite of a recorded batch and compares the
// result with what the log holds.
//
// Rewriting is a pure function of the input text and the mode, so a
// replay must reproduce the batch exactly. Each row is recomputed in the
// mode it was recorded with, whatever the engine's own mode is. The memo
// is bypassed and nothing is written. A mismatch usually means the
// rewriter changed since the batch was recorded.
//
// Returns a BATCH_NOT_FOUND error when the log holds no rows for batch.
func (e *Engine) Replay(ctx context.Context, batch string) (ReplayResult, error) {
	result := ReplayResult{Batch: batch, Mismatches: []ReplayMismatch{}}
	if e.store == nil {
		return result, &RuntimeError{Code: ErrCodeNoStore, Message: "replay needs a rewrite log", Batch: batch}
	}

	rows, err := e.store.ReadBatch(ctx, batch)
	if err != nil {
		return result, storeError(batch, 0, "failed to read batch", err)
	}
	if len(rows) == 0 {
		return result, &RuntimeError{Code: ErrCodeBatchNotFound, Message: "no rewrites recorded", Batch: batch}
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Checked++

		recomputed := recordedForm(rewriteText(row.Input, row.Mode))
		recorded := row.Output
		if row.Failed() {
			recorded = row.ErrorKind
		}
		if recorded != recomputed {
			result.Mismatches = append(result.Mismatches, ReplayMismatch{
				Seq:        row.Seq,
				Input:      row.Input,
				Recorded:   recorded,
				Recomputed: recomputed,
			})
		}
	}

	slog.Info("replay finished",
		"batch", batch,
		"checked", result.Checked,
		"mismatches", len(result.Mismatches),
	)
	return result, nil
}

// recordedForm renders a rewrite the way the log stores it: the output
// text, or the error kind on failure.
func recordedForm(output string, err error) string {
	if err != nil {
		return errorKind(err)
	}
	return output
}
