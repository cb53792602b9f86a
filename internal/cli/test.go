package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/callchain/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter    string // suite filter (glob pattern on the file name)
	GoldenDir string // compare traces against <dir>/<suite>.golden
	Update    bool   // regenerate golden files
}

// SuiteResult holds the result of a single suite.
type SuiteResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Cases  int      `json:"cases"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Suites []SuiteResult `json:"suites"`
	Passed int           `json:"passed"`
	Failed int           `json:"failed"`
	Total  int           `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <suites-dir>",
		Short: "Run YAML scenario suites",
		Long: `Run every YAML scenario suite in a directory.

Each suite is processed as one batch against an in-memory rewrite log,
every case is checked against its expected output or error, and the batch
is replayed to confirm it reproduces. With --golden, each suite's trace is
also compared with <golden-dir>/<suite name>.golden.

Exit codes:
  0 - All suites passed
  1 - One or more suites failed
  2 - Command error (invalid paths, etc.)

Examples:
  callchain test ./suites
  callchain test ./suites --filter "push*"
  callchain test ./suites --golden ./golden --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter suites by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files (requires --golden)")

	return cmd
}

func runTests(opts *TestOptions, suitesDir string, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	f := newFormatter(cmd, cfg)

	if _, err := os.Stat(suitesDir); os.IsNotExist(err) {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("suites directory not found: %s", suitesDir), nil)
		return quietExitError(ExitCommandError, fmt.Sprintf("suites directory not found: %s", suitesDir))
	}
	if opts.Update && opts.GoldenDir == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	files, err := findSuiteFiles(suitesDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find suites", err)
	}

	result := TestResult{
		Suites: make([]SuiteResult, 0, len(files)),
		Total:  len(files),
	}
	if len(files) == 0 {
		if f.IsJSON() {
			return f.Success(result)
		}
		fmt.Fprintln(f.Writer, "No suites found.")
		return nil
	}

	for _, file := range files {
		sr := runSuite(file, opts, f)
		result.Suites = append(result.Suites, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if f.IsJSON() {
		return outputTestJSON(f, result)
	}
	return outputTestText(f, result)
}

// findSuiteFiles lists suite files, keeping those whose base name without
// extension matches filter.
func findSuiteFiles(dir, filter string) ([]string, error) {
	files, err := harness.FindSuites(dir)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return files, nil
	}

	var matched []string
	for _, file := range files {
		base := filepath.Base(file)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		ok, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if ok {
			matched = append(matched, file)
		}
	}
	return matched, nil
}

// runSuite executes a single suite file and prints its line in text mode.
func runSuite(file string, opts *TestOptions, f *OutputFormatter) SuiteResult {
	sr := runSuiteChecks(file, opts)

	if !f.IsJSON() {
		if sr.Pass {
			fmt.Fprintf(f.Writer, "✓ %s (%d case(s))\n", sr.Name, sr.Cases)
		} else {
			fmt.Fprintf(f.Writer, "✗ %s\n", sr.Name)
			for _, e := range sr.Errors {
				fmt.Fprintf(f.Writer, "  %s\n", e)
			}
		}
	}
	return sr
}

func runSuiteChecks(file string, opts *TestOptions) SuiteResult {
	suite, err := harness.LoadSuite(file)
	if err != nil {
		return SuiteResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load suite: %v", err)},
		}
	}

	sr := SuiteResult{Name: suite.Name, Cases: len(suite.Cases)}

	result, err := harness.Run(suite)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Errors = result.Errors

	if opts.GoldenDir != "" {
		if msg := checkGolden(opts, suite, result); msg != "" {
			sr.Errors = append(sr.Errors, msg)
		}
	}

	sr.Pass = len(sr.Errors) == 0
	return sr
}

// checkGolden compares or rewrites the suite's golden trace. It returns a
// failure message, or "" when the trace matches or was updated.
func checkGolden(opts *TestOptions, suite *harness.Suite, result *harness.Result) string {
	snapshot := harness.TraceSnapshot{
		SuiteName: suite.Name,
		Batch:     result.Batch,
		Trace:     result.Trace,
	}
	current, err := snapshot.MarshalCanonical()
	if err != nil {
		return fmt.Sprintf("failed to marshal trace: %v", err)
	}

	goldenPath := filepath.Join(opts.GoldenDir, suite.Name+".golden")
	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0755); err != nil {
			return fmt.Sprintf("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, current, 0644); err != nil {
			return fmt.Sprintf("failed to write golden file: %v", err)
		}
		return ""
	}

	golden, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		return fmt.Sprintf("golden file missing: %s (run with --update to create)", goldenPath)
	}
	if err != nil {
		return fmt.Sprintf("failed to read golden file: %v", err)
	}
	if !bytes.Equal(golden, current) {
		return "trace does not match golden file (run with --update to regenerate)"
	}
	return ""
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(f *OutputFormatter, result TestResult) error {
	if result.Failed == 0 {
		return f.Success(result)
	}
	if err := f.Error(ErrCodeGeneric, fmt.Sprintf("%d suite(s) failed", result.Failed), result); err != nil {
		return err
	}
	return quietExitError(ExitFailure, fmt.Sprintf("%d suite(s) failed", result.Failed))
}

// outputTestText outputs the test summary as text.
func outputTestText(f *OutputFormatter, result TestResult) error {
	w := f.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return quietExitError(ExitFailure, fmt.Sprintf("%d suite(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All suites passed")
	return nil
}
