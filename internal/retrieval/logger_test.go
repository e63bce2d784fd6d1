package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"governai/internal/index"
)

func TestQueryLog_ConcurrentRecords(t *testing.T) {
	var buf bytes.Buffer
	log := NewQueryLog(&buf)

	const writers, perWriter = 20, 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				log.Record(context.Background(), QueryLogEntry{Question: "q", Outcome: OutcomeAnswered})
			}
		}()
	}
	wg.Wait()

	dec := json.NewDecoder(&buf)
	n := 0
	for dec.More() {
		var entry QueryLogEntry
		require.NoError(t, dec.Decode(&entry), "line %d", n)
		n++
	}
	assert.Equal(t, writers*perWriter, n)
}

func TestQueryLog_StampsTime(t *testing.T) {
	var buf bytes.Buffer
	NewQueryLog(&buf).Record(context.Background(), QueryLogEntry{Question: "q", SessionID: "s1", WindowDays: 14, LatencyMs: 1500})

	var entry QueryLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.False(t, entry.Time.IsZero())
	assert.Equal(t, "s1", entry.SessionID)
	assert.Equal(t, 14, entry.WindowDays)
	assert.Equal(t, int64(1500), entry.LatencyMs)
}

func TestOpenQueryLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "query.log")
	log, err := OpenQueryLog(path)
	require.NoError(t, err)

	log.Record(context.Background(), QueryLogEntry{Question: "persisted", Time: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"question":"persisted"`)
	assert.Contains(t, string(data), `"time":"2025-06-01T00:00:00Z"`)
}

func TestQueryLog_CloseWithoutFile(t *testing.T) {
	assert.NoError(t, NewQueryLog(&bytes.Buffer{}).Close())
}

func TestDistinctSources(t *testing.T) {
	chunks := []index.ScoredChunk{
		{Chunk: index.Chunk{Source: "Reuters"}},
		{Chunk: index.Chunk{Source: "Wired AI"}},
		{Chunk: index.Chunk{Source: "Reuters"}},
	}
	assert.Equal(t, 2, distinctSources(chunks))
	assert.Zero(t, distinctSources(nil))
}
