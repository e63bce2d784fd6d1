package analytics

import (
	"regexp"
	"sort"
	"strings"

	"governai/internal/article"
)

const (
	DefaultTopKeywords = 15
	WordCloudSize      = 100
	dateLayout         = "2006-01-02"
)

var Countries = []string{"USA", "China", "India", "UK", "Germany", "France", "Canada", "Australia"}

var wordRe = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)

var stopwords = map[string]bool{
	"about": true, "after": true, "also": true, "been": true, "before": true, "being": true,
	"between": true, "both": true, "could": true, "does": true, "each": true, "from": true,
	"have": true, "having": true, "here": true, "into": true, "just": true, "like": true,
	"more": true, "most": true, "much": true, "must": true, "only": true, "other": true,
	"over": true, "said": true, "same": true, "should": true, "some": true, "such": true,
	"than": true, "that": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "through": true, "under": true,
	"very": true, "were": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "will": true, "with": true, "would": true, "your": true,
}

type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type SourceDailyCount struct {
	Date   string `json:"date"`
	Source string `json:"source"`
	Count  int    `json:"count"`
}

type Report struct {
	Articles     int                `json:"articles"`
	Countries    []Count            `json:"countries"`
	Keywords     []Count            `json:"keywords"`
	WordCloud    []Count            `json:"wordCloud"`
	SourceVolume []Count            `json:"sourceVolume"`
	Daily        []DailyCount       `json:"daily"`
	SourceDaily  []SourceDailyCount `json:"sourceDaily"`
}

func Summarize(items []article.Article) Report {
	return Report{
		Articles:     len(items),
		Countries:    CountryMentions(items),
		Keywords:     TopKeywords(items, DefaultTopKeywords),
		WordCloud:    WordFrequencies(items, WordCloudSize),
		SourceVolume: SourceVolume(items),
		Daily:        DailyTrend(items),
		SourceDaily:  SourceDailyTrend(items),
	}
}

// CountryMentions counts articles whose title or summary names each country,
// case-insensitively. Countries with no mention are omitted.
func CountryMentions(items []article.Article) []Count {
	var out []Count
	for _, c := range Countries {
		needle := strings.ToLower(c)
		n := 0
		for _, it := range items {
			if strings.Contains(strings.ToLower(it.Title+" "+it.Summary), needle) {
				n++
			}
		}
		if n > 0 {
			out = append(out, Count{Label: c, Count: n})
		}
	}
	return out
}

// TopKeywords returns the n most frequent lower-cased words of four or more
// letters. Ties keep first-seen order.
func TopKeywords(items []article.Article, n int) []Count {
	return rank(tokens(items), n, nil)
}

// WordFrequencies weights words for a word cloud: the keyword tokenizer minus
// common English stopwords.
func WordFrequencies(items []article.Article, n int) []Count {
	return rank(tokens(items), n, stopwords)
}

func tokens(items []article.Article) []string {
	var out []string
	for _, it := range items {
		out = append(out, wordRe.FindAllString(strings.ToLower(it.Title+" "+it.Summary), -1)...)
	}
	return out
}

func rank(words []string, n int, skip map[string]bool) []Count {
	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		if skip[w] {
			continue
		}
		if _, ok := counts[w]; !ok {
			order = append(order, w)
		}
		counts[w]++
	}

	out := make([]Count, len(order))
	for i, w := range order {
		out[i] = Count{Label: w, Count: counts[w]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SourceVolume counts articles per source, sorted by source name.
func SourceVolume(items []article.Article) []Count {
	counts := make(map[string]int)
	for _, it := range items {
		counts[it.Source]++
	}
	out := make([]Count, 0, len(counts))
	for src, n := range counts {
		out = append(out, Count{Label: src, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// DailyTrend counts articles per UTC publish date, oldest first.
func DailyTrend(items []article.Article) []DailyCount {
	counts := make(map[string]int)
	for _, it := range items {
		if it.Published.IsZero() {
			continue
		}
		counts[it.Published.UTC().Format(dateLayout)]++
	}
	out := make([]DailyCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, DailyCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// SourceDailyTrend counts articles per date and source.
func SourceDailyTrend(items []article.Article) []SourceDailyCount {
	type key struct{ date, source string }
	counts := make(map[key]int)
	for _, it := range items {
		if it.Published.IsZero() {
			continue
		}
		counts[key{it.Published.UTC().Format(dateLayout), it.Source}]++
	}
	out := make([]SourceDailyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, SourceDailyCount{Date: k.date, Source: k.source, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Source < out[j].Source
	})
	return out
}
