package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callchain/internal/ir"
)

func testRewrite(t *testing.T, batch string, seq int64, input, output, kind string) ir.Rewrite {
	t.Helper()
	hash := ir.MustChainHash(input, ir.ModeCanonical)
	id, err := ir.RewriteID(hash, batch, seq)
	require.NoError(t, err)
	return ir.Rewrite{
		ID:        id,
		Batch:     batch,
		Seq:       seq,
		InputHash: hash,
		Mode:      ir.ModeCanonical,
		Input:     input,
		Output:    output,
		ErrorKind: kind,
	}
}

func TestWriteRewrite_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rw := testRewrite(t, "b1", 1, "map{element}", "filter{(1=1)}%>%map{element}", "")

	inserted, err := s.WriteRewrite(ctx, rw)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.WriteRewrite(ctx, rw)
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate id is ignored")

	got, err := s.ReadBatch(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rw, got[0])
}

func TestWriteRewrite_RequiresOutcome(t *testing.T) {
	s := createTestStore(t)

	_, err := s.WriteRewrite(context.Background(), testRewrite(t, "b1", 1, "map{element}", "", ""))
	require.Error(t, err)
}

func TestReadBatch_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Written out of order on purpose.
	for _, seq := range []int64{3, 1, 2} {
		_, err := s.WriteRewrite(ctx, testRewrite(t, "b1", seq, "map{element}", "filter{(1=1)}%>%map{element}", ""))
		require.NoError(t, err)
	}
	_, err := s.WriteRewrite(ctx, testRewrite(t, "b2", 4, "map{element}", "filter{(1=1)}%>%map{element}", ""))
	require.NoError(t, err)

	got, err := s.ReadBatch(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, rw := range got {
		assert.Equal(t, int64(i+1), rw.Seq)
	}

	empty, err := s.ReadBatch(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestLookupOutput(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	input := "filter{(element+10)}"
	_, found, err := s.LookupOutput(ctx, ir.MustChainHash(input, ir.ModeCanonical))
	require.NoError(t, err)
	assert.False(t, found)

	first := testRewrite(t, "b1", 5, input, "", ir.ErrorKindType)
	later := testRewrite(t, "b2", 9, input, "", ir.ErrorKindType)
	_, err = s.WriteRewrite(ctx, later)
	require.NoError(t, err)
	_, err = s.WriteRewrite(ctx, first)
	require.NoError(t, err)

	got, found, err := s.LookupOutput(ctx, ir.MustChainHash(input, ir.ModeCanonical))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.ID, got.ID, "earliest seq wins")
	assert.True(t, got.Failed())

	_, err = s.DB().ExecContext(ctx, `UPDATE rewrites SET engine_version = '0.0.1' WHERE id = ?`, first.ID)
	require.NoError(t, err)
	got, found, err = s.LookupOutput(ctx, ir.MustChainHash(input, ir.ModeCanonical))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, later.ID, got.ID, "rows from another engine version are skipped")

	_, err = s.DB().ExecContext(ctx, `UPDATE rewrites SET engine_version = '0.0.1'`)
	require.NoError(t, err)
	_, found, err = s.LookupOutput(ctx, ir.MustChainHash(input, ir.ModeCanonical))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLastSeqAndBatches(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	rows := []ir.Rewrite{
		testRewrite(t, "b1", 1, "map{element}", "filter{(1=1)}%>%map{element}", ""),
		testRewrite(t, "b1", 2, "--2", "", ir.ErrorKindSyntax),
		testRewrite(t, "b2", 3, "filter{(element>0)}", "filter{(element>0)}%>%map{element}", ""),
	}
	for _, rw := range rows {
		_, err := s.WriteRewrite(ctx, rw)
		require.NoError(t, err)
	}

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), seq)

	batches, err := s.ListBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []BatchSummary{
		{Batch: "b1", FirstSeq: 1, LastSeq: 2, Lines: 2, Failed: 1},
		{Batch: "b2", FirstSeq: 3, LastSeq: 3, Lines: 1, Failed: 0},
	}, batches)
}

func TestPipelines_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	p := ir.Pipeline{
		Name:        "positive-squares",
		Description: "keep positives, square them",
		Steps:       []string{"filter{(element>0)}", "map{(element*element)}"},
		Mode:        ir.ModeCanonical,
		Input:       "filter{(element>0)}%>%map{(element*element)}",
		Output:      "filter{(element>0)}%>%map{(element*element)}",
	}
	hash, err := ir.PipelineHash(p.Name, p.Steps, p.Mode)
	require.NoError(t, err)
	p.Hash = hash

	raw := p
	raw.Mode = ir.ModeRaw
	raw.Output = "filter{(element>0)}%>%map{(element*element)} raw"
	raw.Hash, err = ir.PipelineHash(raw.Name, raw.Steps, raw.Mode)
	require.NoError(t, err)

	require.NoError(t, s.WritePipeline(ctx, p))
	require.NoError(t, s.WritePipeline(ctx, p), "duplicate hash is ignored")
	require.NoError(t, s.WritePipeline(ctx, raw))

	got, err := s.ReadPipelines(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2, "each mode keeps its own output")
	assert.Equal(t, p, got[0])
	assert.Equal(t, raw, got[1])

	var version string
	require.NoError(t, s.DB().QueryRowContext(ctx,
		`SELECT engine_version FROM pipelines WHERE hash = ?`, p.Hash).Scan(&version))
	assert.Equal(t, ir.EngineVersion, version)
}
