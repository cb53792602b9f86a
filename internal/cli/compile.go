package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/callchain/internal/catalog"
	"github.com/roach88/callchain/internal/chain"
	"github.com/roach88/callchain/internal/expr"
	"github.com/roach88/callchain/internal/ir"
	"github.com/roach88/callchain/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // output file path
	Database string
	RawMap   bool
}

// CompilationResult is the JSON payload of the compile command and the
// content of the --output file.
type CompilationResult struct {
	Pipelines []ir.Pipeline `json:"pipelines"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <catalog-dir>",
		Short: "Compile a CUE pipeline catalog",
		Long: `Compile every pipeline declared in a CUE catalog.

Each pipeline lists its steps as map{...} and filter{...} calls:

  pipeline: squares: {
      description: "square the positives"
      steps: ["filter{(element>0)}", "map{(element*element)}"]
  }

Every step is parsed and the chain is reordered. All errors are collected
and reported with their CUE positions.

Exit codes:
  0 - Every pipeline compiled
  2 - Load or compile errors

Examples:
  callchain compile ./catalog
  callchain compile ./catalog -o pipelines.json
  callchain compile ./catalog --db ./callchain.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write compiled pipelines to file as JSON")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record compiled pipelines in a SQLite database")
	cmd.Flags().BoolVar(&opts.RawMap, "raw-map", false, "keep composed maps as built")

	return cmd
}

func runCompile(opts *CompileOptions, catalogDir string, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	formatter := newFormatter(cmd, cfg)

	rawMap := cfg.RawMap
	if cmd.Flags().Changed("raw-map") {
		rawMap = opts.RawMap
	}
	var chainOpts []chain.Option
	if rawMap {
		chainOpts = append(chainOpts, chain.WithRawMap())
	}

	loadResult, loadErrors := catalog.Load(catalogDir, catalog.LoadModeCollectAll, chainOpts...)

	if loadResult == nil && len(loadErrors) > 0 {
		code, message := parseLoadError(loadErrors[0])
		return outputCompileError(formatter, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, catalogDir)
	for _, p := range loadResult.Pipelines {
		formatter.VerboseLog("Compiled pipeline: %s", p.Name)
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := &CompilationResult{Pipelines: loadResult.Pipelines}

	if opts.Output != "" {
		if err := writePipelinesToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWrite, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}
	if dbPath != "" {
		if err := recordPipelines(cmd.Context(), dbPath, result.Pipelines); err != nil {
			return outputCompileError(formatter, ErrCodeStore, fmt.Sprintf("recording pipelines: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// recordPipelines upserts every compiled pipeline into the database at path.
func recordPipelines(ctx context.Context, path string, pipelines []ir.Pipeline) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	for _, p := range pipelines {
		if err := st.WritePipeline(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d pipeline(s)\n\n", len(result.Pipelines))
	for _, p := range result.Pipelines {
		fmt.Fprintf(formatter.Writer, "  %s: %d step(s)\n", p.Name, len(p.Steps))
		fmt.Fprintf(formatter.Writer, "    %s\n", p.Output)
	}
	fmt.Fprintln(formatter.Writer)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote pipelines to %s\n", outputFile)
	}
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return quietExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputCompileErrors outputs every collected compilation error.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.IsJSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}
		if err := json.NewEncoder(formatter.Writer).Encode(response); err != nil {
			return err
		}
		return quietExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseLoadError(err)
		var loadErr *catalog.LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return quietExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseLoadError extracts an error code and message from a catalog error.
// A step rejected by the parser or rewriter keeps its expression code.
func parseLoadError(err error) (string, string) {
	var loadErr *catalog.LoadError
	if !errors.As(err, &loadErr) {
		return ErrCodeGeneric, err.Error()
	}

	switch loadErr.Kind {
	case catalog.ErrNotFound, catalog.ErrEmpty:
		return ErrCodeNotFound, loadErr.Message
	case catalog.ErrCompile:
		if kind, ok := expr.KindOf(err); ok {
			return codeForKind(kind), loadErr.Message
		}
		return ErrCodeGeneric, loadErr.Message
	default:
		return ErrCodeCUELoad, loadErr.Message
	}
}

// writePipelinesToFile writes the compilation result as indented JSON.
func writePipelinesToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling pipelines: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
