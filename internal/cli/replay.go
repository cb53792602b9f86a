package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/callchain/internal/engine"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Batch    string // optional - specific batch only
}

// ReplaySummary holds the overall replay result.
type ReplaySummary struct {
	Batches          []engine.ReplayResult `json:"batches"`
	TotalBatches     int                   `json:"total_batches"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Recompute recorded batches and verify determinism",
		Long: `Recompute every line of the rewrite log and compare it with what was
recorded. Each line is rewritten again in the mode it was recorded with.

Exit codes:
  0 - Every batch reproduced exactly
  1 - At least one line differs
  2 - Command error (database not found, unknown batch)

Examples:
  callchain replay --db ./callchain.db
  callchain replay --db ./callchain.db --batch 01928c7e-...
  callchain replay --db ./callchain.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite rewrite log (default from config)")
	cmd.Flags().StringVar(&opts.Batch, "batch", "", "replay specific batch only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	f := newFormatter(cmd, cfg)
	ctx := cmd.Context()

	st, err := openExistingStore(f, cfg, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	var batches []string
	if opts.Batch != "" {
		batches = []string{opts.Batch}
	} else {
		summaries, err := st.ListBatches(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list batches", err)
		}
		for _, s := range summaries {
			batches = append(batches, s.Batch)
		}
	}

	summary := ReplaySummary{
		Batches:          make([]engine.ReplayResult, 0, len(batches)),
		TotalBatches:     len(batches),
		AllDeterministic: true,
	}

	eng := engine.New(st, nil)
	for _, batch := range batches {
		result, err := eng.Replay(ctx, batch)
		if err != nil {
			if engine.IsBatchNotFound(err) {
				_ = f.Error(ErrCodeNotFound, fmt.Sprintf("batch not found: %s", batch), nil)
				return quietExitError(ExitCommandError, fmt.Sprintf("batch not found: %s", batch))
			}
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay batch %s", batch), err)
		}
		summary.Batches = append(summary.Batches, result)
		if !result.OK() {
			summary.AllDeterministic = false
		}
	}

	if f.IsJSON() {
		return outputReplayJSON(f, summary)
	}
	return outputReplayText(f, summary)
}

// outputReplayJSON outputs the replay summary as JSON.
func outputReplayJSON(f *OutputFormatter, summary ReplaySummary) error {
	if summary.AllDeterministic {
		return f.Success(summary)
	}
	if err := f.Error(ErrCodeMismatch, "determinism verification failed", summary); err != nil {
		return err
	}
	return quietExitError(ExitFailure, "determinism verification failed")
}

// outputReplayText outputs the replay summary as text.
func outputReplayText(f *OutputFormatter, summary ReplaySummary) error {
	w := f.Writer

	if summary.TotalBatches == 0 {
		fmt.Fprintln(w, "No batches found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d batch(es)\n\n", summary.TotalBatches)

	for _, b := range summary.Batches {
		status := "✓"
		if !b.OK() {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Batch: %s (%d line(s))\n", status, b.Batch, b.Checked)
		for _, m := range b.Mismatches {
			fmt.Fprintf(w, "  [%d] %s\n", m.Seq, m.Input)
			fmt.Fprintf(w, "      recorded:   %s\n", m.Recorded)
			fmt.Fprintf(w, "      recomputed: %s\n", m.Recomputed)
		}
	}
	fmt.Fprintln(w)

	if summary.AllDeterministic {
		fmt.Fprintln(w, "✓ All batches verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return quietExitError(ExitFailure, "determinism verification failed")
}
