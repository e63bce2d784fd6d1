package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"governai/internal/article"
	"governai/internal/source"
)

const (
	UserAgent = "Mozilla/5.0 (compatible; GovernAI/1.0; +https://github.com/governai)"

	DefaultTimeout = 15 * time.Second
)

type FeedFetcher struct {
	feeds   []source.Feed
	client  *http.Client
	timeout time.Duration
}

func NewFeedFetcher(feeds []source.Feed, client *http.Client, timeout time.Duration) *FeedFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FeedFetcher{feeds: feeds, client: client, timeout: timeout}
}

// Fetch reads every feed concurrently and returns the entries published at or
// after cutoff, grouped in feed registration order. A feed that fails
// contributes nothing and never affects the others.
func (f *FeedFetcher) Fetch(ctx context.Context, cutoff time.Time) []article.Article {
	results := make([][]article.Article, len(f.feeds))

	var g errgroup.Group
	for i, feed := range f.feeds {
		g.Go(func() error {
			items, err := f.FetchFeed(ctx, feed, cutoff)
			if err != nil {
				slog.WarnContext(ctx, "feed fetch failed", "source", feed.Name, "url", feed.URL, "error", err)
				return nil
			}
			slog.DebugContext(ctx, "feed fetched", "source", feed.Name, "items", len(items))
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	var all []article.Article
	for _, items := range results {
		all = append(all, items...)
	}
	return all
}

// FetchFeed downloads and parses a single feed.
func (f *FeedFetcher) FetchFeed(ctx context.Context, feed source.Feed, cutoff time.Time) ([]article.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var items []article.Article
	for _, entry := range parsed.Items {
		if entry == nil || entry.PublishedParsed == nil {
			continue
		}
		published := entry.PublishedParsed.UTC()
		if published.Before(cutoff) {
			continue
		}

		rawSummary := entry.Description
		if rawSummary == "" {
			rawSummary = entry.Content
		}
		summary := Truncate(CleanHTML(rawSummary), FeedSummaryLimit)

		content := CleanHTML(entry.Content)
		if content == "" {
			content = summary
		}

		items = append(items, article.Article{
			Source:    feed.Name,
			Title:     article.Title(entry.Title),
			Summary:   summary,
			Content:   content,
			Link:      entry.Link,
			Published: published,
		})
	}
	return items, nil
}
