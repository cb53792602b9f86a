package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/callchain/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"; empty defers to the config
	ConfigFile string
	EnvFile    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the callchain CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "callchain",
		Short: "callchain - map/filter chain optimizer",
		Long: `Rewrite chains of map{...} and filter{...} calls over integers into a single
filter followed by a single map, with the filter pushed below every map and
both sides simplified.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "" && !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "output format (json|text, default text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./callchain.yaml if present)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "load CALLCHAIN_* variables from a .env file")

	cmd.AddCommand(NewReorderCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSimplifyCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// settings loads the config file and environment, then applies the global
// flags on top. Logging is configured as a side effect.
func (o *RootOptions) settings(cmd *cobra.Command) (*config.Config, error) {
	var loaderOpts []config.LoaderOption
	if o.ConfigFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(o.ConfigFile))
	}
	if o.EnvFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(o.EnvFile))
	}

	cfg, err := config.Load(loaderOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Format != "" {
		cfg.Format = o.Format
	}
	if o.Verbose {
		cfg.Verbose = true
	}

	setupLogging(cmd.ErrOrStderr(), cfg.Verbose)
	return cfg, nil
}

// newFormatter builds the output formatter for a resolved config.
func newFormatter(cmd *cobra.Command, cfg *config.Config) *OutputFormatter {
	return &OutputFormatter{
		Format:    cfg.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   cfg.Verbose,
	}
}

// setupLogging points the default slog logger at w. Engine progress is
// logged at Info, so it only shows with --verbose.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
