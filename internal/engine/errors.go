package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is a failure of the engine itself, as opposed to a rejected
// input line. Rejected lines are recorded as outcomes and never surface
// here.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Batch identifies the affected batch, if any.
	Batch string

	// Seq identifies the affected rewrite, or 0.
	Seq int64

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeStore indicates the rewrite log could not be read or written.
	ErrCodeStore RuntimeErrorCode = "STORE_FAILURE"

	// ErrCodeBatchNotFound indicates replay of a batch the log does not hold.
	ErrCodeBatchNotFound RuntimeErrorCode = "BATCH_NOT_FOUND"

	// ErrCodeNoStore indicates an operation that needs the log on an engine
	// built without one.
	ErrCodeNoStore RuntimeErrorCode = "NO_STORE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Batch != "" && e.Seq != 0 {
		msg = fmt.Sprintf("%s (batch=%s, seq=%d)", msg, e.Batch, e.Seq)
	} else if e.Batch != "" {
		msg = fmt.Sprintf("%s (batch=%s)", msg, e.Batch)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsStoreError returns true if err wraps a store failure.
func IsStoreError(err error) bool {
	return hasCode(err, ErrCodeStore)
}

// IsBatchNotFound returns true if err wraps a missing-batch failure.
func IsBatchNotFound(err error) bool {
	return hasCode(err, ErrCodeBatchNotFound)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func storeError(batch string, seq int64, msg string, err error) error {
	return &RuntimeError{Code: ErrCodeStore, Message: msg, Batch: batch, Seq: seq, Err: err}
}
