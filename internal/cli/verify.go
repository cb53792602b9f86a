package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/callchain/internal/chain"
	"github.com/roach88/callchain/internal/parser"
)


// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Min    int64
	Max    int64
	RawMap bool
}

// VerifyResult is the JSON payload of the verify command.
type VerifyResult struct {
	Input    string `json:"input"`
	Output   string `json:"output"`
	Min      int64  `json:"min"`
	Max      int64  `json:"max"`
	Samples  int    `json:"samples"`
	Agree    bool   `json:"agree"`
	Mismatch string `json:"mismatch,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <chain>",
		Short: "Check a rewrite against the original chain on sample integers",
		Long: `Rewrite a chain, then run both the original and the rewritten chain on
every integer in [--min, --max] and check that they accept the same values
and map them to the same results.

Exit codes:
  0 - The chains agree on every sample
  1 - The chain was rejected or the chains disagree
  2 - Command error (bad range)

Examples:
  callchain verify 'map{(element+10)}%>%filter{(element>10)}'
  callchain verify --min -1000 --max 1000 'filter{(element>0)}%>%map{(element*element)}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Min, "min", 0, "smallest sample (default from config, -20)")
	cmd.Flags().Int64Var(&opts.Max, "max", 0, "largest sample (default from config, 20)")
	cmd.Flags().BoolVar(&opts.RawMap, "raw-map", false, "keep the composed map as built")

	return cmd
}

func runVerify(opts *VerifyOptions, text string, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	f := newFormatter(cmd, cfg)

	lo, hi := cfg.Verify.Min, cfg.Verify.Max
	if cmd.Flags().Changed("min") {
		lo = opts.Min
	}
	if cmd.Flags().Changed("max") {
		hi = opts.Max
	}
	if lo > hi {
		return NewExitError(ExitCommandError, fmt.Sprintf("--min (%d) must not exceed --max (%d)", lo, hi))
	}
	samples, err := chain.Range(lo, hi)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid sample range", err)
	}

	rawMap := cfg.RawMap
	if cmd.Flags().Changed("raw-map") {
		rawMap = opts.RawMap
	}
	var chainOpts []chain.Option
	if rawMap {
		chainOpts = append(chainOpts, chain.WithRawMap())
	}

	original, err := parser.ParseChain(text)
	if err != nil {
		return f.Rejection(err)
	}
	rewritten, err := chain.Reorder(original, chainOpts...)
	if err != nil {
		return f.Rejection(err)
	}

	result := VerifyResult{
		Input:   text,
		Output:  rewritten.String(),
		Min:     lo,
		Max:     hi,
		Samples: len(samples),
		Agree:   true,
	}

	if err := chain.Verify(original, rewritten, samples); err != nil {
		var mismatch *chain.MismatchError
		if !errors.As(err, &mismatch) {
			return f.Rejection(err)
		}
		result.Agree = false
		result.Mismatch = mismatch.Error()
	}

	if f.IsJSON() {
		if !result.Agree {
			_ = f.Error(ErrCodeMismatch, result.Mismatch, result)
			return quietExitError(ExitFailure, "verification failed")
		}
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, result.Output)
	if !result.Agree {
		fmt.Fprintf(w, "✗ %s\n", result.Mismatch)
		return quietExitError(ExitFailure, "verification failed")
	}
	fmt.Fprintf(w, "✓ Agrees on %d sample(s) in [%d, %d]\n", result.Samples, lo, hi)
	return nil
}
