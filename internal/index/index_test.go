package index_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"governai/internal/article"
	"governai/internal/index"
	"governai/internal/text"
)

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, t string) ([]float32, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func sampleArticles() []article.Article {
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return []article.Article{
		{Source: "Stanford HAI", Title: "EU AI Act", Summary: "Parliament adopts the act.", Link: "https://hai.stanford.edu/a", Published: ts},
		{Source: "Wired AI", Title: "Facial recognition ban", Summary: "City council votes.", Link: "https://wired.com/b", Published: ts},
	}
}

func TestIndexer_Chunk(t *testing.T) {
	ix := index.NewIndexer(text.NewSplitter(300, 40), nil, nil, 0)
	chunks := ix.Chunk(sampleArticles())

	require.Len(t, chunks, 2)
	assert.Equal(t, "EU AI Act\nParliament adopts the act.", chunks[0].Text)
	assert.Equal(t, "Stanford HAI", chunks[0].Source)
	assert.Equal(t, "https://wired.com/b", chunks[1].Link)
	assert.NotEqual(t, chunks[0].ID, chunks[1].ID)
}

func TestIndexer_Chunk_LongSummary(t *testing.T) {
	a := sampleArticles()[0]
	a.Summary = strings.Repeat("governance ", 80)
	ix := index.NewIndexer(text.NewSplitter(300, 40), nil, nil, 0)

	chunks := ix.Chunk([]article.Article{a})
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, "EU AI Act", c.Title)
	}
}

func TestIndexer_Build_BatchesAndRetrieves(t *testing.T) {
	e := new(MockEmbedder)
	store := index.NewMemoryStore()
	ix := index.NewIndexer(text.NewSplitter(300, 40), e, store, 1)

	e.On("EmbedBatch", mock.Anything, []string{"EU AI Act\nParliament adopts the act."}).Return([][]float32{{1, 0}}, nil).Once()
	e.On("EmbedBatch", mock.Anything, []string{"Facial recognition ban\nCity council votes."}).Return([][]float32{{0, 1}}, nil).Once()
	e.On("Embed", mock.Anything, "face scanning").Return([]float32{0.1, 0.9}, nil)

	r, err := ix.Build(context.Background(), sampleArticles())
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	got, err := r.Retrieve(context.Background(), "face scanning", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Facial recognition ban", got[0].Title)
	assert.Greater(t, got[0].Score, got[1].Score)

	e.AssertExpectations(t)

	require.NoError(t, r.Release(context.Background()))
	n, _ := store.Count(context.Background())
	assert.Equal(t, 0, n)
}

func TestIndexer_Build_EmptyCorpusSkipsEmbedder(t *testing.T) {
	e := new(MockEmbedder)
	ix := index.NewIndexer(text.NewSplitter(300, 40), e, index.NewMemoryStore(), 0)

	r, err := ix.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())

	got, err := r.Retrieve(context.Background(), "anything", 5)
	assert.NoError(t, err)
	assert.Empty(t, got)

	e.AssertNotCalled(t, "EmbedBatch", mock.Anything, mock.Anything)
	e.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
}

func TestIndexer_Build_EmbedError(t *testing.T) {
	e := new(MockEmbedder)
	e.On("EmbedBatch", mock.Anything, mock.Anything).Return(nil, errors.New("quota"))
	ix := index.NewIndexer(text.NewSplitter(300, 40), e, index.NewMemoryStore(), 0)

	r, err := ix.Build(context.Background(), sampleArticles())
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestIndexer_Build_VectorCountMismatch(t *testing.T) {
	e := new(MockEmbedder)
	e.On("EmbedBatch", mock.Anything, mock.Anything).Return([][]float32{{1}}, nil)
	ix := index.NewIndexer(text.NewSplitter(300, 40), e, index.NewMemoryStore(), 0)

	_, err := ix.Build(context.Background(), sampleArticles())
	assert.ErrorContains(t, err, "got 1 vectors for 2 texts")
}

func TestRetriever_QueryEmbedError(t *testing.T) {
	e := new(MockEmbedder)
	e.On("EmbedBatch", mock.Anything, mock.Anything).Return([][]float32{{1, 0}, {0, 1}}, nil)
	e.On("Embed", mock.Anything, "q").Return(nil, errors.New("down"))
	ix := index.NewIndexer(text.NewSplitter(300, 40), e, index.NewMemoryStore(), 0)

	r, err := ix.Build(context.Background(), sampleArticles())
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "q", 5)
	assert.Error(t, err)
}
