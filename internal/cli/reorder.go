package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/callchain/internal/engine"
	"github.com/roach88/callchain/internal/store"
)

// ReorderOptions holds flags for the reorder command.
type ReorderOptions struct {
	*RootOptions
	Database string
	RawMap   bool
	NoMemo   bool
}

// ReorderLine is the JSON form of one processed chain.
type ReorderLine struct {
	Seq      int64  `json:"seq"`
	Input    string `json:"input"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
	Memoized bool   `json:"memoized,omitempty"`
}

// ReorderResult is the JSON payload of the reorder command.
type ReorderResult struct {
	Batch  string        `json:"batch"`
	Mode   string        `json:"mode"`
	Lines  []ReorderLine `json:"lines"`
	Failed int           `json:"failed"`
}

// NewReorderCommand creates the reorder command.
func NewReorderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReorderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reorder [chain]",
		Short: "Rewrite chains into filter{...}%>%map{...} form",
		Long: `Rewrite a call chain into a single filter followed by a single map.

With an argument, rewrites that chain. Without one, reads chains from stdin,
one per line, and writes one result line per input line: the rewritten chain
or the error kind (SYNTAX ERROR, TYPE ERROR, INVARIANT ERROR).

With --db every line is recorded in a SQLite rewrite log under a fresh batch
token, and chains already in the log are answered from it.

Exit codes:
  0 - Every chain was rewritten
  1 - One or more chains were rejected
  2 - Command error (database not writable, bad config)

Examples:
  callchain reorder 'map{(element+10)}%>%filter{(element>10)}'
  cat chains.txt | callchain reorder --db ./callchain.db
  callchain reorder --raw-map 'map{(element+1)}%>%map{(element*element)}'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReorder(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite rewrite log")
	cmd.Flags().BoolVar(&opts.RawMap, "raw-map", false, "keep the composed map as built instead of canonicalizing it")
	cmd.Flags().BoolVar(&opts.NoMemo, "no-memo", false, "recompute chains already in the log")

	return cmd
}

func runReorder(opts *ReorderOptions, args []string, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	f := newFormatter(cmd, cfg)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}
	rawMap := cfg.RawMap
	if cmd.Flags().Changed("raw-map") {
		rawMap = opts.RawMap
	}

	var lines []string
	if len(args) == 1 {
		lines = []string{args[0]}
	} else {
		lines, err = readLines(cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
	}

	var engineOpts []engine.EngineOption
	if rawMap {
		engineOpts = append(engineOpts, engine.WithRawMap())
	}
	if opts.NoMemo {
		engineOpts = append(engineOpts, engine.WithoutMemo())
	}

	var eng *engine.Engine
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		eng, err = engine.Resume(ctx, st, nil, engineOpts...)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to resume from database", err)
		}
	} else {
		eng = engine.New(nil, nil, engineOpts...)
	}

	batch, err := eng.Process(ctx, lines)
	if err != nil {
		if engine.IsStoreError(err) {
			_ = f.Error(ErrCodeStore, "rewrite log failure", err.Error())
			return WrapExitError(ExitCommandError, "rewrite log failure", err)
		}
		return WrapExitError(ExitCommandError, "batch aborted", err)
	}

	if f.IsJSON() {
		result := ReorderResult{
			Batch:  batch.Batch,
			Mode:   eng.Mode(),
			Lines:  make([]ReorderLine, len(batch.Outcomes)),
			Failed: batch.Failed(),
		}
		for i, o := range batch.Outcomes {
			result.Lines[i] = ReorderLine{
				Seq:      o.Seq,
				Input:    o.Input,
				Output:   o.Output,
				Error:    o.ErrorKind,
				Memoized: o.Memoized,
			}
			if o.Failed() {
				result.Lines[i].Code = codeForKindName(o.ErrorKind)
			}
		}
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, o := range batch.Outcomes {
			if o.Failed() {
				fmt.Fprintln(w, o.ErrorKind)
				if o.Err != nil {
					f.VerboseLog("line %d: %v", o.Seq, o.Err)
				}
				continue
			}
			fmt.Fprintln(w, o.Output)
		}
	}

	if n := batch.Failed(); n > 0 {
		return quietExitError(ExitFailure, fmt.Sprintf("%d of %d chains rejected", n, len(batch.Outcomes)))
	}
	return nil
}

// readLines reads every line of r. Trailing carriage returns are dropped;
// blank lines are kept so output lines stay aligned with input lines.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
