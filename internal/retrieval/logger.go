package retrieval

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"governai/internal/index"
)

// QueryLogEntry is one answered question, written as a JSON line.
type QueryLogEntry struct {
	Time          time.Time `json:"time"`
	Question      string    `json:"question"`
	SessionID     string    `json:"session_id,omitempty"`
	WindowDays    int       `json:"window_days,omitempty"`
	Chunks        int       `json:"chunks"`
	Sources       int       `json:"sources"`
	Outcome       Outcome   `json:"outcome"`
	LatencyMs     int64     `json:"latency_ms"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// QueryLog appends entries to a writer. Safe for concurrent use.
type QueryLog struct {
	mu  sync.Mutex
	enc *json.Encoder
	c   io.Closer
}

func NewQueryLog(w io.Writer) *QueryLog {
	return &QueryLog{enc: json.NewEncoder(w)}
}

// OpenQueryLog appends to the file at path, creating it and its directory.
func OpenQueryLog(path string) (*QueryLog, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	l := NewQueryLog(f)
	l.c = f
	return l, nil
}

func (l *QueryLog) Record(ctx context.Context, entry QueryLogEntry) {
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(entry); err != nil {
		slog.WarnContext(ctx, "query log write failed", "error", err)
	}
}

func (l *QueryLog) Close() error {
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}

func distinctSources(chunks []index.ScoredChunk) int {
	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		seen[c.Source] = struct{}{}
	}
	return len(seen)
}
