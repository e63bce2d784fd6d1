package article

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultTitle replaces a missing or blank headline.
const DefaultTitle = "Untitled"

var (
	ErrMissingSource    = errors.New("article source is empty")
	ErrMissingTitle     = errors.New("article title is empty")
	ErrMissingPublished = errors.New("article has no publish time")
	ErrBeforeCutoff     = errors.New("article published before cutoff")
)

// Article is one normalised news item, whichever fetcher produced it.
type Article struct {
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content,omitempty"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
}

// Title normalises a raw headline.
func Title(raw string) string {
	t := strings.TrimSpace(raw)
	if t == "" {
		return DefaultTitle
	}
	return t
}

// Validate enforces the record invariants for a given recency cutoff.
func (a Article) Validate(cutoff time.Time) error {
	if strings.TrimSpace(a.Source) == "" {
		return ErrMissingSource
	}
	if strings.TrimSpace(a.Title) == "" {
		return ErrMissingTitle
	}
	if a.Published.IsZero() {
		return ErrMissingPublished
	}
	if a.Published.Before(cutoff) {
		return fmt.Errorf("%w: %s", ErrBeforeCutoff, a.Published.Format(time.RFC3339))
	}
	return nil
}

// Text is the indexable body of an article.
func (a Article) Text() string {
	return a.Title + "\n" + a.Summary
}

// Cutoff returns the earliest publish time kept for a window of days.
func Cutoff(now time.Time, days int) time.Time {
	return now.UTC().AddDate(0, 0, -days)
}
