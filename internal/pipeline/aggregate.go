package pipeline

import (
	"log/slog"
	"sort"
	"time"

	"governai/internal/article"
)

// Merge validates every record against cutoff, concatenates the batches in
// order and returns them newest first, truncated to limit. Records with equal
// publish times keep their input order.
func Merge(cutoff time.Time, limit int, batches ...[]article.Article) []article.Article {
	var out []article.Article
	for _, batch := range batches {
		for _, a := range batch {
			if err := a.Validate(cutoff); err != nil {
				slog.Debug("dropping article", "source", a.Source, "title", a.Title, "reason", err)
				continue
			}
			out = append(out, a)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Published.After(out[j].Published)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
