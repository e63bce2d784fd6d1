package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"governai/internal/article"
	"governai/internal/config"
	"governai/internal/index"
)

var ErrInvalidWindow = errors.New("invalid window")

const DefaultLimit = 50

// Window is what a caller may choose: how many days back and how many items.
type Window struct {
	Days  int `json:"days"`
	Limit int `json:"limit"`
}

// NewWindow validates a caller-supplied window. A zero limit means DefaultLimit.
func NewWindow(days, limit int) (Window, error) {
	if !config.IsAllowedWindow(days) {
		return Window{}, fmt.Errorf("%w: days must be one of %v, got %d", ErrInvalidWindow, config.AllowedWindows, days)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > config.MaxLimit {
		return Window{}, fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidWindow, config.MaxLimit, limit)
	}
	return Window{Days: days, Limit: limit}, nil
}

func (w Window) key() string {
	return fmt.Sprintf("%d/%d", w.Days, w.Limit)
}

type FeedSource interface {
	Fetch(ctx context.Context, cutoff time.Time) []article.Article
}

type SearchSource interface {
	Fetch(ctx context.Context, query string, cutoff time.Time) []article.Article
}

type IndexBuilder interface {
	Build(ctx context.Context, items []article.Article) (*index.Retriever, error)
}

// Session is one fetched, merged and indexed corpus. It is read-only once built.
type Session struct {
	ID        string            `json:"id"`
	Window    Window            `json:"window"`
	Cutoff    time.Time         `json:"cutoff"`
	BuiltAt   time.Time         `json:"builtAt"`
	Items     []article.Article `json:"-"`
	Retriever *index.Retriever  `json:"-"`
	Chunks    int               `json:"chunks"`
	// IndexErr is set when the corpus was fetched but could not be indexed.
	IndexErr error `json:"-"`
}

// Retrieve lets a session stand in for its retriever. A session whose index
// build failed reports that failure on every query.
func (s *Session) Retrieve(ctx context.Context, query string, k int) ([]index.ScoredChunk, error) {
	if s.IndexErr != nil {
		return nil, s.IndexErr
	}
	return s.Retriever.Retrieve(ctx, query, k)
}

func (s *Session) Scope() (string, int) {
	return s.ID, s.Window.Days
}

func (s *Session) Release(ctx context.Context) error {
	return s.Retriever.Release(ctx)
}

type Pipeline struct {
	feeds   FeedSource
	search  SearchSource
	query   string
	indexer IndexBuilder
	now     func() time.Time
}

// New wires the fetchers and the indexer. search may be nil.
func New(feeds FeedSource, search SearchSource, query string, indexer IndexBuilder) *Pipeline {
	return &Pipeline{
		feeds:   feeds,
		search:  search,
		query:   query,
		indexer: indexer,
		now:     time.Now,
	}
}

// Build runs the feed group, then the search query, merges both and indexes
// the result. Fetch failures only shrink the corpus; an index failure is kept
// on the session so the items stay usable.
func (p *Pipeline) Build(ctx context.Context, w Window) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := p.now()
	cutoff := article.Cutoff(start, w.Days)

	feedItems := p.feeds.Fetch(ctx, cutoff)

	var searchItems []article.Article
	if p.search != nil {
		searchItems = p.search.Fetch(ctx, p.query, cutoff)
	}

	items := Merge(cutoff, w.Limit, feedItems, searchItems)

	s := &Session{
		ID:      uuid.NewString(),
		Window:  w,
		Cutoff:  cutoff,
		BuiltAt: start.UTC(),
		Items:   items,
	}

	retriever, err := p.indexer.Build(ctx, items)
	if err != nil {
		slog.ErrorContext(ctx, "index build failed", "session_id", s.ID, "articles", len(items), "error", err)
		s.IndexErr = fmt.Errorf("index session: %w", err)
	} else {
		s.Retriever = retriever
		s.Chunks = retriever.Len()
	}

	slog.InfoContext(ctx, "session built",
		"session_id", s.ID,
		"days", w.Days,
		"feed_items", len(feedItems),
		"search_items", len(searchItems),
		"articles", len(items),
		"chunks", s.Chunks,
		"duration", time.Since(start),
	)
	return s, nil
}
