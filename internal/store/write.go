package store

import (
	"context"
	"fmt"

	"github.com/roach88/callchain/internal/ir"
)

// WriteRewrite inserts a rewrite record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently
// ignored. inserted reports whether a new row was written.
func (s *Store) WriteRewrite(ctx context.Context, rw ir.Rewrite) (inserted bool, err error) {
	if rw.Output == "" && rw.ErrorKind == "" {
		return false, fmt.Errorf("write rewrite %s: needs an output or an error kind", rw.ID)
	}

	mode := rw.Mode
	if mode == "" {
		mode = ir.ModeCanonical
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO rewrites
		(id, batch, seq, input_hash, mode, input, output, error_kind, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rw.ID,
		rw.Batch,
		rw.Seq,
		rw.InputHash,
		mode,
		rw.Input,
		rw.Output,
		rw.ErrorKind,
		ir.EngineVersion,
		ir.IRVersion,
	)
	if err != nil {
		return false, fmt.Errorf("write rewrite: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write rewrite: rows affected: %w", err)
	}
	return n > 0, nil
}

// WritePipeline inserts a compiled catalog pipeline keyed by its hash.
// The hash covers name, steps, mode and engine version, so a duplicate
// hash carries the same output and is ignored. Steps are stored as
// canonical JSON.
func (s *Store) WritePipeline(ctx context.Context, p ir.Pipeline) error {
	steps, err := ir.MarshalCanonical(ir.Strings(p.Steps))
	if err != nil {
		return fmt.Errorf("write pipeline %q: marshal steps: %w", p.Name, err)
	}

	mode := p.Mode
	if mode == "" {
		mode = ir.ModeCanonical
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipelines
		(hash, name, description, steps, mode, input, output, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		p.Hash,
		p.Name,
		p.Description,
		string(steps),
		mode,
		p.Input,
		p.Output,
		ir.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write pipeline %q: %w", p.Name, err)
	}
	return nil
}
