package flat

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Add(ctx, 1, []float32{1, 0, 0}))
	require.NoError(t, idx.Add(ctx, 2, []float32{0, 1, 0}))
	require.NoError(t, idx.Add(ctx, 3, []float32{0.707, 0.707, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, int64(1), hits[0].UID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, int64(3), hits[1].UID)
	assert.InDelta(t, 0.707, hits[1].Score, 1e-3)
}

func TestIndex_Search_EmptyIndex(t *testing.T) {
	idx := New()
	hits, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Search_NeverExceedsK(t *testing.T) {
	ctx := context.Background()
	idx := New()
	for i := int64(0); i < 10; i++ {
		require.NoError(t, idx.Add(ctx, i, []float32{float32(i) / 10, 1, 0}))
	}

	hits, err := idx.Search(ctx, []float32{0, 1, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestIndex_Search_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, 1, []float32{1, 0, 0}))

	_, err := idx.Search(ctx, []float32{1, 0}, 1)
	assert.Error(t, err)
}

func TestIndex_Add_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, 1, []float32{1, 0, 0}))

	err := idx.Add(ctx, 2, []float32{1, 0})
	assert.Error(t, err)
}

func TestIndex_Add_ReplacesExisting(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, 7, []float32{1, 0}))
	require.NoError(t, idx.Add(ctx, 7, []float32{0, 1}))

	assert.Equal(t, 1, idx.Len())

	hits, err := idx.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestIndex_Delete(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, 1, []float32{1, 0}))
	require.NoError(t, idx.Add(ctx, 2, []float32{0, 1}))
	require.NoError(t, idx.Add(ctx, 3, []float32{0.5, 0.5}))

	removed, err := idx.Delete(ctx, []int64{2, 99})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, idx.Len())

	// Deleted entries never come back from search
	hits, err := idx.Search(ctx, []float32{0, 1}, 10)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, int64(2), h.UID)
	}

	// Remaining entries still searchable after compaction
	hits, err = idx.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].UID)
}

func TestIndex_WriteToAndRead(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, 101, []float32{1, 0, 0}))
	require.NoError(t, idx.Add(ctx, 102, []float32{0, 1, 0}))

	var buf bytes.Buffer
	n, err := idx.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	loaded, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, 3, loaded.Dim())

	hits, err := loaded.Search(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(102), hits[0].UID)
}

func TestRead_BadMagic(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not an index at all")))
	assert.Error(t, err)
}

func TestRead_Truncated(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, 1, []float32{1, 0}))

	var buf bytes.Buffer
	_, err := idx.WriteTo(&buf)
	require.NoError(t, err)

	trunc := buf.Bytes()[:buf.Len()-3]
	_, err = Read(bytes.NewReader(trunc))
	assert.Error(t, err)
}

func TestIndex_ClosedOperationsFail(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, 1, []float32{1}))
	require.NoError(t, idx.Close())

	assert.Error(t, idx.Add(ctx, 2, []float32{1}))
	_, err := idx.Search(ctx, []float32{1}, 1)
	assert.Error(t, err)
	_, err = idx.Delete(ctx, []int64{1})
	assert.Error(t, err)
}
