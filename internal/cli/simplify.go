package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/callchain/internal/expr"
	"github.com/roach88/callchain/internal/parser"
	"github.com/roach88/callchain/internal/simplify"
)

// SimplifyResult is the JSON payload of the simplify command.
type SimplifyResult struct {
	Input  string `json:"input"`
	Kind   string `json:"kind"` // "bool" | "arith"
	Output string `json:"output"`
}

// NewSimplifyCommand creates the simplify command.
func NewSimplifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simplify <expr>",
		Short: "Simplify a single expression",
		Long: `Simplify one fully parenthesized expression over element.

A boolean expression is reduced with the same rules reorder applies to the
pushed-down filter. An arithmetic expression is rewritten as its canonical
polynomial.

Examples:
  callchain simplify '((element>0)&(element<0))'
  callchain simplify '((element+1)*(element+1))'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimplify(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runSimplify(opts *RootOptions, text string, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	f := newFormatter(cmd, cfg)

	e, err := parser.ParseExpr(text)
	if err != nil {
		return f.Rejection(err)
	}

	result := SimplifyResult{Input: text}
	switch v := e.(type) {
	case expr.Bool:
		out, err := simplify.Simplify(v)
		if err != nil {
			return f.Rejection(err)
		}
		result.Kind, result.Output = "bool", expr.Format(out)
	case expr.Arith:
		out, err := expr.Canonical(v)
		if err != nil {
			return f.Rejection(err)
		}
		result.Kind, result.Output = "arith", expr.Format(out)
	default:
		return f.Rejection(expr.InvariantErrorf("expression %T is neither Bool nor Arith", e))
	}

	if f.IsJSON() {
		return f.Success(result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Output)
	return nil
}
