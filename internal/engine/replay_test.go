package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callchain/internal/ir"
)

func TestReplay_ReproducesBatch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	e := New(s, NewFixedGenerator("batch-1"))

	_, err := e.Process(ctx, []string{
		"map{(element+10)}%>%filter{(element>10)}%>%map{(element*element)}",
		"filter{(element>0)}%>%filter{(element<0)}",
		"map{element}%>%",
		"filter{(element+1)}",
	})
	require.NoError(t, err)

	result, err := e.Replay(ctx, "batch-1")
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, 4, result.Checked)
}

func TestReplay_UsesRecordedMode(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	raw := New(s, NewFixedGenerator("batch-raw"), WithRawMap())
	_, err := raw.Process(ctx, []string{"map{(element+1)}%>%map{(element*element)}"})
	require.NoError(t, err)

	// A canonical engine still replays the raw batch in raw mode.
	canonical := New(s, nil)
	result, err := canonical.Replay(ctx, "batch-raw")
	require.NoError(t, err)
	assert.True(t, result.OK(), "mismatches: %+v", result.Mismatches)
}

func TestReplay_DetectsMismatch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	input := "map{(element+1)}"
	hash := ir.MustChainHash(input, ir.ModeCanonical)
	id, err := ir.RewriteID(hash, "tampered", 1)
	require.NoError(t, err)
	_, err = s.WriteRewrite(ctx, ir.Rewrite{
		ID:        id,
		Batch:     "tampered",
		Seq:       1,
		InputHash: hash,
		Mode:      ir.ModeCanonical,
		Input:     input,
		Output:    "filter{(1=1)}%>%map{(element+1)}",
	})
	require.NoError(t, err)

	result, err := New(s, nil).Replay(ctx, "tampered")
	require.NoError(t, err)
	assert.False(t, result.OK())
	require.Len(t, result.Mismatches, 1)
	assert.Equal(t, ReplayMismatch{
		Seq:        1,
		Input:      input,
		Recorded:   "filter{(1=1)}%>%map{(element+1)}",
		Recomputed: "filter{(1=1)}%>%map{(1+element)}",
	}, result.Mismatches[0])
}

func TestReplay_UnknownBatch(t *testing.T) {
	e := New(setupTestStore(t), nil)

	_, err := e.Replay(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsBatchNotFound(err))
}

func TestReplay_NoStore(t *testing.T) {
	_, err := New(nil, nil).Replay(context.Background(), "batch-1")
	require.Error(t, err)

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeNoStore, re.Code)
}
