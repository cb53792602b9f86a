package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/callchain/internal/ir"
)

const rewriteColumns = `id, batch, seq, input_hash, mode, input, output, error_kind`

// LookupOutput returns the earliest rewrite of an input with the given hash
// recorded by this engine version. Rows from other versions are never
// served, so a changed rewriter recomputes instead of repeating old output.
// found is false when no such row exists.
func (s *Store) LookupOutput(ctx context.Context, inputHash string) (rw ir.Rewrite, found bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+rewriteColumns+`
		FROM rewrites
		WHERE input_hash = ? AND engine_version = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
		LIMIT 1
	`, inputHash, ir.EngineVersion)

	rw, err = scanRewrite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Rewrite{}, false, nil
	}
	if err != nil {
		return ir.Rewrite{}, false, fmt.Errorf("lookup output: %w", err)
	}
	return rw, true, nil
}

// ReadBatch returns every rewrite of a batch in deterministic order:
// ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) for an unknown batch.
func (s *Store) ReadBatch(ctx context.Context, batch string) ([]ir.Rewrite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+rewriteColumns+`
		FROM rewrites
		WHERE batch = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, batch)
	if err != nil {
		return nil, fmt.Errorf("query rewrites: %w", err)
	}
	defer rows.Close()

	rewrites := []ir.Rewrite{}
	for rows.Next() {
		rw, err := scanRewrite(rows)
		if err != nil {
			return nil, err
		}
		rewrites = append(rewrites, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rewrites: %w", err)
	}
	return rewrites, nil
}

// BatchSummary describes one batch in the log.
type BatchSummary struct {
	Batch    string `json:"batch"`
	FirstSeq int64  `json:"first_seq"`
	LastSeq  int64  `json:"last_seq"`
	Lines    int    `json:"lines"`
	Failed   int    `json:"failed"`
}

// ListBatches returns every batch ordered by its first seq.
func (s *Store) ListBatches(ctx context.Context) ([]BatchSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT batch, MIN(seq), MAX(seq), COUNT(*), SUM(CASE WHEN error_kind <> '' THEN 1 ELSE 0 END)
		FROM rewrites
		GROUP BY batch
		ORDER BY MIN(seq) ASC, batch COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	batches := []BatchSummary{}
	for rows.Next() {
		var b BatchSummary
		if err := rows.Scan(&b.Batch, &b.FirstSeq, &b.LastSeq, &b.Lines, &b.Failed); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return batches, nil
}

// LastSeq returns the highest seq in the log, or 0 when it is empty.
// The engine resumes its clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM rewrites`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// ReadPipelines returns compiled pipelines ordered by name, mode, then hash.
func (s *Store) ReadPipelines(ctx context.Context) ([]ir.Pipeline, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, name, description, steps, mode, input, output
		FROM pipelines
		ORDER BY name COLLATE BINARY ASC, mode COLLATE BINARY ASC, hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query pipelines: %w", err)
	}
	defer rows.Close()

	pipelines := []ir.Pipeline{}
	for rows.Next() {
		var p ir.Pipeline
		var steps string
		if err := rows.Scan(&p.Hash, &p.Name, &p.Description, &steps, &p.Mode, &p.Input, &p.Output); err != nil {
			return nil, fmt.Errorf("scan pipeline: %w", err)
		}
		if err := json.Unmarshal([]byte(steps), &p.Steps); err != nil {
			return nil, fmt.Errorf("pipeline %q: unmarshal steps: %w", p.Name, err)
		}
		pipelines = append(pipelines, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pipelines: %w", err)
	}
	return pipelines, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRewrite(row scanner) (ir.Rewrite, error) {
	var rw ir.Rewrite
	err := row.Scan(&rw.ID, &rw.Batch, &rw.Seq, &rw.InputHash, &rw.Mode, &rw.Input, &rw.Output, &rw.ErrorKind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rw, err
		}
		return rw, fmt.Errorf("scan rewrite: %w", err)
	}
	return rw, nil
}
