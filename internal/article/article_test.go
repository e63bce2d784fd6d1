package article_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"governai/internal/article"
)

func TestArticle_Validate(t *testing.T) {
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	valid := article.Article{Source: "Stanford HAI", Title: "t", Published: cutoff.Add(time.Hour)}

	tests := []struct {
		name   string
		mutate func(*article.Article)
		errIs  error
	}{
		{"Valid", func(a *article.Article) {}, nil},
		{"At Cutoff", func(a *article.Article) { a.Published = cutoff }, nil},
		{"Missing Source", func(a *article.Article) { a.Source = " " }, article.ErrMissingSource},
		{"Missing Title", func(a *article.Article) { a.Title = "" }, article.ErrMissingTitle},
		{"Zero Published", func(a *article.Article) { a.Published = time.Time{} }, article.ErrMissingPublished},
		{"Before Cutoff", func(a *article.Article) { a.Published = cutoff.Add(-time.Second) }, article.ErrBeforeCutoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			err := a.Validate(cutoff)
			if tt.errIs == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.errIs)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, article.DefaultTitle, article.Title("   "))
	assert.Equal(t, "EU AI Act", article.Title("  EU AI Act \n"))
}

func TestArticle_JSONPublishedIsISO(t *testing.T) {
	a := article.Article{Source: "s", Title: "t", Published: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)}
	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"published":"2025-03-04T05:06:07Z"`)
}

func TestCutoff(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC), article.Cutoff(now, 7))
}
