package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"governai/internal/article"
	"governai/internal/source"
)

const (
	DefaultSearchURL   = "https://google.serper.dev/search"
	DefaultResultCount = 20
)

var ErrMissingAPIKey = errors.New("search api key not configured")

type SearchFetcher struct {
	url      string
	apiKey   string
	num      int
	client   *http.Client
	registry *source.Registry
	now      func() time.Time
}

func NewSearchFetcher(url, apiKey string, num int, registry *source.Registry, client *http.Client) *SearchFetcher {
	if url == "" {
		url = DefaultSearchURL
	}
	if num <= 0 {
		num = DefaultResultCount
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &SearchFetcher{
		url:      url,
		apiKey:   apiKey,
		num:      num,
		client:   client,
		registry: registry,
		now:      time.Now,
	}
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

type organicResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
	Date    string `json:"date"`
	Source  string `json:"source"`
}

// Fetch runs one search and maps the organic results to articles. Any request
// failure is logged and yields no results. Results with a missing or
// unreadable date are kept and stamped with the current time.
func (s *SearchFetcher) Fetch(ctx context.Context, query string, cutoff time.Time) []article.Article {
	results, err := s.search(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "search request failed", "error", err)
		return nil
	}

	now := s.now().UTC()
	var items []article.Article
	for _, r := range results {
		published := now
		if strings.TrimSpace(r.Date) != "" {
			if t, err := ParseFuzzyDate(r.Date, now); err == nil {
				published = t
			} else {
				slog.WarnContext(ctx, "unparseable search result date, using now", "date", r.Date, "link", r.Link)
			}
		}
		if published.Before(cutoff) {
			continue
		}

		summary := Truncate(CleanHTML(r.Snippet), SearchSnippetLimit)
		items = append(items, article.Article{
			Source:    s.registry.ResolveName(r.Link, r.Source),
			Title:     article.Title(r.Title),
			Summary:   summary,
			Content:   summary,
			Link:      r.Link,
			Published: published,
		})
	}
	slog.DebugContext(ctx, "search results mapped", "organic", len(results), "kept", len(items))
	return items
}

func (s *SearchFetcher) search(ctx context.Context, query string) ([]organicResult, error) {
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(searchRequest{Q: query, Num: s.num})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search api error: %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return decoded.Organic, nil
}
