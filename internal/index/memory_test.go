package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SearchOrdersByCosine(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	chunks := []Chunk{{ID: "a", Text: "a"}, {ID: "b", Text: "b"}, {ID: "c", Text: "c"}}
	vectors := [][]float32{{1, 0}, {0.7, 0.7}, {0, 1}}
	require.NoError(t, s.Add(ctx, "s1", chunks, vectors))

	got, err := s.Search(ctx, "s1", []float32{0, 2}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
}

func TestMemoryStore_SessionsIsolated(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, "s1", []Chunk{{ID: "a"}}, [][]float32{{1}}))
	require.NoError(t, s.Add(ctx, "s2", []Chunk{{ID: "b"}, {ID: "c"}}, [][]float32{{1}, {1}}))

	got, _ := s.Search(ctx, "s1", []float32{1}, 10)
	assert.Len(t, got, 1)

	n, _ := s.Count(ctx)
	assert.Equal(t, 3, n)

	require.NoError(t, s.Delete(ctx, "s2"))
	n, _ = s.Count(ctx)
	assert.Equal(t, 1, n)

	got, _ = s.Search(ctx, "missing", []float32{1}, 10)
	assert.Empty(t, got)
}

func TestMemoryStore_AddMismatch(t *testing.T) {
	s := NewMemoryStore()
	assert.Error(t, s.Add(context.Background(), "s", []Chunk{{ID: "a"}}, nil))
}

func TestCosine_ZeroVector(t *testing.T) {
	assert.Equal(t, float32(0), cosine([]float32{0, 0}, 0, []float32{1, 0}, 1))
	assert.Equal(t, float32(0), cosine([]float32{1}, 1, []float32{1, 0}, 1))
}
