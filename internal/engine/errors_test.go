package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError_Error(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name string
		err  *RuntimeError
		want string
	}{
		{
			name: "code only",
			err:  &RuntimeError{Code: ErrCodeNoStore, Message: "replay needs a rewrite log"},
			want: "NO_STORE: replay needs a rewrite log",
		},
		{
			name: "with batch",
			err:  &RuntimeError{Code: ErrCodeBatchNotFound, Message: "no rewrites recorded", Batch: "b1"},
			want: "BATCH_NOT_FOUND: no rewrites recorded (batch=b1)",
		},
		{
			name: "with batch, seq and cause",
			err:  &RuntimeError{Code: ErrCodeStore, Message: "write failed", Batch: "b1", Seq: 7, Err: cause},
			want: "STORE_FAILURE: write failed (batch=b1, seq=7): disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestRuntimeError_Wrapped(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("processing: %w", storeError("b1", 3, "write failed", cause))

	assert.True(t, IsStoreError(err))
	assert.False(t, IsBatchNotFound(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsStoreError(cause))
}
