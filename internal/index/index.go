package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"governai/internal/article"
	"governai/internal/text"
)

const DefaultBatchSize = 100

// Chunk is one overlapping window of an article's title and summary.
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Link      string    `json:"link,omitempty"`
	Published time.Time `json:"published"`
	Position  int       `json:"position"`
}

type ScoredChunk struct {
	Chunk
	Score float32 `json:"score"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store holds the embedded chunks of every live session, partitioned by session ID.
type Store interface {
	Add(ctx context.Context, sessionID string, chunks []Chunk, vectors [][]float32) error
	Search(ctx context.Context, sessionID string, vector []float32, k int) ([]ScoredChunk, error)
	Delete(ctx context.Context, sessionID string) error
	Count(ctx context.Context) (int, error)
}

type Indexer struct {
	splitter  *text.Splitter
	embedder  Embedder
	store     Store
	batchSize int
}

func NewIndexer(s *text.Splitter, e Embedder, st Store, batchSize int) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Indexer{splitter: s, embedder: e, store: st, batchSize: batchSize}
}

// Chunk splits every article into windows, keeping the article's metadata on each.
func (ix *Indexer) Chunk(items []article.Article) []Chunk {
	var chunks []Chunk
	for _, a := range items {
		for i, t := range ix.splitter.Split(a.Text()) {
			chunks = append(chunks, Chunk{
				ID:        uuid.NewString(),
				Text:      t,
				Source:    a.Source,
				Title:     a.Title,
				Link:      a.Link,
				Published: a.Published,
				Position:  i,
			})
		}
	}
	return chunks
}

// Build indexes items under a fresh session and returns a retriever bound to it.
// An empty item list yields an empty retriever without touching the embedder.
func (ix *Indexer) Build(ctx context.Context, items []article.Article) (*Retriever, error) {
	sessionID := uuid.NewString()
	chunks := ix.Chunk(items)
	r := &Retriever{sessionID: sessionID, embedder: ix.embedder, store: ix.store, size: len(chunks)}
	if len(chunks) == 0 {
		return r, nil
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		batch, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embed chunks %d-%d: got %d vectors for %d texts", start, end, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}

	if err := ix.store.Add(ctx, sessionID, chunks, vectors); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	slog.InfoContext(ctx, "index built", "session_id", sessionID, "articles", len(items), "chunks", len(chunks))
	return r, nil
}

// Retriever answers similarity queries against one built session.
type Retriever struct {
	sessionID string
	embedder  Embedder
	store     Store
	size      int
}

func (r *Retriever) SessionID() string { return r.sessionID }

// Len is the number of indexed chunks.
func (r *Retriever) Len() int {
	if r == nil {
		return 0
	}
	return r.size
}

func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	if r.Len() == 0 || k <= 0 {
		return nil, nil
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.store.Search(ctx, r.sessionID, vec, k)
}

// Release drops the session's chunks from the store.
func (r *Retriever) Release(ctx context.Context) error {
	if r.Len() == 0 {
		return nil
	}
	return r.store.Delete(ctx, r.sessionID)
}
