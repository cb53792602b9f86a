package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/callchain/internal/config"
	"github.com/roach88/callchain/internal/ir"
	"github.com/roach88/callchain/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database  string
	Batch     string // optional - specific batch only
	Pipelines bool
}

// HistoryResult is the JSON payload of the history command. Batches is set
// when listing, Rewrites when showing one batch, Pipelines with --pipelines.
type HistoryResult struct {
	Batches   []store.BatchSummary `json:"batches,omitempty"`
	Batch     string               `json:"batch,omitempty"`
	Rewrites  []ir.Rewrite         `json:"rewrites,omitempty"`
	Pipelines []ir.Pipeline        `json:"pipelines,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded batches or show one batch",
		Long: `Read the rewrite log written by reorder --db.

Without --batch, lists every batch with its seq range and failure count.
With --batch, shows every line of that batch in seq order.
With --pipelines, lists the catalog pipelines recorded by compile --db.

Examples:
  callchain history --db ./callchain.db
  callchain history --db ./callchain.db --batch 01928c7e-...
  callchain history --db ./callchain.db --pipelines`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite rewrite log (default from config)")
	cmd.Flags().StringVar(&opts.Batch, "batch", "", "show a specific batch")
	cmd.Flags().BoolVar(&opts.Pipelines, "pipelines", false, "list recorded catalog pipelines")
	cmd.MarkFlagsMutuallyExclusive("batch", "pipelines")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
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

	if opts.Batch != "" {
		return showBatch(ctx, f, st, opts.Batch)
	}
	if opts.Pipelines {
		return listPipelines(ctx, f, st)
	}

	batches, err := st.ListBatches(ctx)
	if err != nil {
		_ = f.Error(ErrCodeStore, "failed to list batches", err.Error())
		return quietExitError(ExitCommandError, "failed to list batches")
	}

	if f.IsJSON() {
		return f.Success(HistoryResult{Batches: batches})
	}

	w := cmd.OutOrStdout()
	if len(batches) == 0 {
		fmt.Fprintln(w, "No batches found in database.")
		return nil
	}
	fmt.Fprintf(w, "%d batch(es)\n\n", len(batches))
	for _, b := range batches {
		fmt.Fprintf(w, "%s  seq %d-%d  %d line(s), %d rejected\n", b.Batch, b.FirstSeq, b.LastSeq, b.Lines, b.Failed)
	}
	return nil
}

func showBatch(ctx context.Context, f *OutputFormatter, st *store.Store, batch string) error {
	rows, err := st.ReadBatch(ctx, batch)
	if err != nil {
		_ = f.Error(ErrCodeStore, "failed to read batch", err.Error())
		return quietExitError(ExitCommandError, "failed to read batch")
	}
	if len(rows) == 0 {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("batch not found: %s", batch), nil)
		return quietExitError(ExitCommandError, fmt.Sprintf("batch not found: %s", batch))
	}

	if f.IsJSON() {
		return f.Success(HistoryResult{Batch: batch, Rewrites: rows})
	}

	fmt.Fprintf(f.Writer, "Batch %s: %d line(s)\n\n", batch, len(rows))
	for _, rw := range rows {
		result := rw.Output
		if rw.Failed() {
			result = rw.ErrorKind
		}
		fmt.Fprintf(f.Writer, "[%d] %s (%s)\n", rw.Seq, rw.Input, rw.Mode)
		fmt.Fprintf(f.Writer, "    => %s\n", result)
	}
	return nil
}

func listPipelines(ctx context.Context, f *OutputFormatter, st *store.Store) error {
	pipelines, err := st.ReadPipelines(ctx)
	if err != nil {
		_ = f.Error(ErrCodeStore, "failed to read pipelines", err.Error())
		return quietExitError(ExitCommandError, "failed to read pipelines")
	}

	if f.IsJSON() {
		return f.Success(HistoryResult{Pipelines: pipelines})
	}

	if len(pipelines) == 0 {
		fmt.Fprintln(f.Writer, "No pipelines found in database.")
		return nil
	}
	fmt.Fprintf(f.Writer, "%d pipeline(s)\n\n", len(pipelines))
	for _, p := range pipelines {
		fmt.Fprintf(f.Writer, "%s (%s)  %d step(s)\n", p.Name, p.Mode, len(p.Steps))
		fmt.Fprintf(f.Writer, "    => %s\n", p.Output)
	}
	return nil
}

// openExistingStore opens the database named by flag, falling back to the
// config. Reading commands never create a database.
func openExistingStore(f *OutputFormatter, cfg *config.Config, flag string) (*store.Store, error) {
	path := flag
	if path == "" {
		path = cfg.DB
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no database given: pass --db or set db in the config")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
		return nil, quietExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
