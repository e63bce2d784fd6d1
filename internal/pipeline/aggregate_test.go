package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"governai/internal/article"
)

var now = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func item(src, title string, age time.Duration) article.Article {
	return article.Article{Source: src, Title: title, Summary: title + " summary", Published: now.Add(-age)}
}

func TestMerge_CutoffOrderAndLimit(t *testing.T) {
	cutoff := article.Cutoff(now, 7)
	feeds := []article.Article{
		item("Wired AI", "old", 8*24*time.Hour),
		item("Wired AI", "two days", 48*time.Hour),
		item("Stanford HAI", "one hour", time.Hour),
	}
	search := []article.Article{
		item("Reuters", "one day", 24*time.Hour),
		item("Reuters", "three days", 72*time.Hour),
	}

	got := Merge(cutoff, 3, feeds, search)

	titles := make([]string, len(got))
	for i, a := range got {
		titles[i] = a.Title
		assert.False(t, a.Published.Before(cutoff))
	}
	assert.Equal(t, []string{"one hour", "one day", "two days"}, titles)
}

func TestMerge_DropsInvalid(t *testing.T) {
	cutoff := article.Cutoff(now, 7)
	got := Merge(cutoff, 50, []article.Article{
		{Title: "no source", Published: now},
		{Source: "X", Published: now},
		{Source: "X", Title: "no date"},
		item("X", "ok", time.Minute),
	})
	assert.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Title)
}

func TestMerge_StableOnTies(t *testing.T) {
	cutoff := article.Cutoff(now, 7)
	a := item("A", "first", time.Hour)
	b := item("B", "second", time.Hour)
	c := item("C", "third", time.Hour)

	got := Merge(cutoff, 50, []article.Article{a, b}, []article.Article{c})
	assert.Equal(t, []article.Article{a, b, c}, got)
}

func TestMerge_KeepsDuplicates(t *testing.T) {
	cutoff := article.Cutoff(now, 7)
	a := item("A", "same", time.Hour)
	got := Merge(cutoff, 50, []article.Article{a}, []article.Article{a})
	assert.Len(t, got, 2)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(now, 50))
}
