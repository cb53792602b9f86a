package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/callchain/internal/chain"
	"github.com/roach88/callchain/internal/expr"
	"github.com/roach88/callchain/internal/parser"
	"github.com/roach88/callchain/internal/querysql"
)

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	*RootOptions
	Table  string
	Column string
}

// SQLResult is the JSON payload of the sql command.
type SQLResult struct {
	Chain  string `json:"chain"`
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <chain>",
		Short: "Render a chain as a parameterized SQLite query",
		Long: `Rewrite a chain and render the result as a SQLite SELECT over one integer
column. Every constant is bound as a parameter.

Examples:
  callchain sql 'map{(element+10)}%>%filter{(element>10)}'
  callchain sql --table readings --column value 'filter{(element>0)}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "nums", "table to select from")
	cmd.Flags().StringVar(&opts.Column, "column", "x", "integer column the chain reads")

	return cmd
}

func runSQL(opts *SQLOptions, text string, cmd *cobra.Command) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	f := newFormatter(cmd, cfg)

	c, err := parser.ParseChain(text)
	if err != nil {
		return f.Rejection(err)
	}
	canonical, err := chain.Reorder(c)
	if err != nil {
		return f.Rejection(err)
	}

	query, params, err := querysql.Compile(canonical, opts.Table, opts.Column)
	if err != nil {
		if _, ok := expr.KindOf(err); ok {
			return f.Rejection(err)
		}
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return quietExitError(ExitCommandError, err.Error())
	}

	result := SQLResult{Chain: canonical.String(), SQL: query, Params: params}
	if f.IsJSON() {
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, result.SQL)
	fmt.Fprintf(w, "-- params: %v\n", result.Params)
	return nil
}
