package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/callchain/internal/parser"
)

// ValidationResult is the JSON payload of the validate command.
type ValidationResult struct {
	Valid     bool     `json:"valid"`
	Steps     []string `json:"steps"`
	Maps      int      `json:"maps"`
	Canonical bool     `json:"canonical"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <chain>",
		Short: "Check a chain without rewriting it",
		Long: `Parse a call chain and type-check every step without rewriting it.

Reports the parsed steps and whether the chain is already in
filter{...}%>%map{...} form.

Exit codes:
  0 - The chain is well formed
  1 - SYNTAX ERROR or TYPE ERROR

Examples:
  callchain validate 'map{(element+1)}%>%filter{(element>0)}'
  callchain validate --format json 'filter{(element+1)}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, text string, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	f := newFormatter(cmd, cfg)

	c, err := parser.ParseChain(text)
	if err != nil {
		return f.Rejection(err)
	}

	result := ValidationResult{
		Valid:     true,
		Steps:     make([]string, len(c)),
		Maps:      c.Maps(),
		Canonical: c.IsCanonical(),
	}
	for i, step := range c {
		result.Steps[i] = step.String()
	}

	if f.IsJSON() {
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Valid chain: %d step(s), %d map(s)\n", len(result.Steps), result.Maps)
	for i, step := range result.Steps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
	if result.Canonical {
		fmt.Fprintln(w, "Already in filter/map form")
	}
	return nil
}
