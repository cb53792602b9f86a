package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/callchain/internal/expr"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a chain was rejected or a check failed
	ExitCommandError = 2 // bad flags, paths, config or database
)

// Error codes carried in JSON error envelopes.
const (
	ErrCodeGeneric   = "E001"
	ErrCodeSyntax    = "E002"
	ErrCodeType      = "E003"
	ErrCodeInvariant = "E004"
	ErrCodeNotFound  = "E005"
	ErrCodeCUELoad   = "E006"
	ErrCodeWrite     = "E007"
	ErrCodeStore     = "E008"
	ErrCodeMismatch  = "E009"
)

// ExitError carries the process exit code out of a command's RunE.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// Quiet marks errors whose report was already written to stdout.
	Quiet bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError with no underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches code and context to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// quietExitError is an ExitError whose details the command already printed.
func quietExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message, Quiet: true}
}

// GetExitCode maps err to a process exit code: 0 for nil, the carried
// code for an ExitError, 1 otherwise.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsQuiet reports whether err was already reported on stdout.
func IsQuiet(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Quiet
}

// codeForKind maps an expression error kind to its envelope code.
func codeForKind(kind expr.Kind) string {
	switch kind {
	case expr.KindSyntax:
		return ErrCodeSyntax
	case expr.KindType:
		return ErrCodeType
	case expr.KindInvariant:
		return ErrCodeInvariant
	default:
		return ErrCodeGeneric
	}
}

// codeForKindName is codeForKind for the kind text stored in the log.
func codeForKindName(kind string) string {
	return codeForKind(expr.Kind(kind))
}

// OutputFormatter writes command results as text or as JSON envelopes.
// Diagnostics go to ErrWriter so they never interleave with a JSON
// document on Writer.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the envelope every --format json command prints: exactly
// one of Data or Error is set, matching Status "ok" or "error".
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error half of CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// IsJSON reports whether the formatter writes JSON envelopes.
func (f *OutputFormatter) IsJSON() bool {
	return f.Format == "json"
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Success prints data; text mode uses its default formatting.
func (f *OutputFormatter) Success(data any) error {
	if f.IsJSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error prints a coded error. Details are shown in text mode only with
// --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.IsJSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Rejection reports a chain or expression the rewriter refused and
// returns the ExitFailure error the command should return.
//
// Text output is the bare kind (SYNTAX ERROR, TYPE ERROR, INVARIANT
// ERROR) on one line, with the full message only under --verbose.
func (f *OutputFormatter) Rejection(err error) error {
	kind, ok := expr.KindOf(err)
	if !ok {
		return err
	}

	if f.IsJSON() {
		details := map[string]any{"message": err.Error()}
		var e *expr.Error
		if errors.As(err, &e) && e.Offset >= 0 {
			details["offset"] = e.Offset
		}
		if werr := f.Error(codeForKind(kind), string(kind), details); werr != nil {
			return werr
		}
	} else {
		fmt.Fprintln(f.Writer, string(kind))
		f.VerboseLog("%v", err)
	}
	return quietExitError(ExitFailure, string(kind))
}

// VerboseLog prints a diagnostic line under --verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter is ErrWriter, or Writer when none was set.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
