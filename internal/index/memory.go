package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

type memoryEntry struct {
	chunk  Chunk
	vector []float32
	norm   float64
}

// MemoryStore keeps vectors in process and searches them exhaustively by
// cosine similarity. A session holds at most a few hundred chunks.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]memoryEntry)}
}

func (m *MemoryStore) Add(ctx context.Context, sessionID string, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d != %d", len(chunks), len(vectors))
	}
	entries := make([]memoryEntry, len(chunks))
	for i := range chunks {
		entries[i] = memoryEntry{chunk: chunks[i], vector: vectors[i], norm: norm(vectors[i])}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], entries...)
	return nil
}

func (m *MemoryStore) Search(ctx context.Context, sessionID string, vector []float32, k int) ([]ScoredChunk, error) {
	m.mu.RLock()
	entries := m.sessions[sessionID]
	m.mu.RUnlock()

	qn := norm(vector)
	results := make([]ScoredChunk, 0, len(entries))
	for _, e := range entries {
		results = append(results, ScoredChunk{Chunk: e.chunk, Score: cosine(vector, qn, e.vector, e.norm)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, entries := range m.sessions {
		n += len(entries)
	}
	return n, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, an float64, b []float32, bn float64) float32 {
	if an == 0 || bn == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (an * bn))
}
