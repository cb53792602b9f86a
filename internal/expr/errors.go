package expr

import (
	"errors"
	"fmt"
)

// Kind categorizes expression errors. The string value is the one-line
// message printed at the command boundary.
type Kind string

const (
	// KindSyntax indicates text that does not match the grammar.
	KindSyntax Kind = "SYNTAX ERROR"

	// KindType indicates an operand without the capability its operator needs.
	KindType Kind = "TYPE ERROR"

	// KindInvariant indicates a malformed tree that bypassed Build.
	KindInvariant Kind = "INVARIANT ERROR"
)

// Error is the single error type raised by parsing, building, substitution
// and simplification.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Message is a human-readable description.
	Message string

	// Offset is the byte offset into the input text, or -1 when the error
	// did not come from text.
	Offset int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: %s (offset %d)", e.Kind, e.Message, e.Offset)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// SyntaxErrorf creates a syntax error at a byte offset.
func SyntaxErrorf(offset int, format string, args ...any) *Error {
	return &Error{Kind: KindSyntax, Message: fmt.Sprintf(format, args...), Offset: offset}
}

// TypeErrorf creates a type error with no text position.
func TypeErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindType, Message: fmt.Sprintf(format, args...), Offset: -1}
}

// InvariantErrorf creates an invariant error with no text position.
func InvariantErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindInvariant, Message: fmt.Sprintf(format, args...), Offset: -1}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsSyntaxError returns true if err wraps a syntax error.
func IsSyntaxError(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindSyntax
}

// IsTypeError returns true if err wraps a type error.
func IsTypeError(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindType
}

// IsInvariantError returns true if err wraps an invariant error.
func IsInvariantError(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindInvariant
}
