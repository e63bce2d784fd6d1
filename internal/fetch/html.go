package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	FeedSummaryLimit   = 500
	SearchSnippetLimit = 300
)

// CleanHTML returns the visible text of an HTML fragment: text nodes are
// trimmed, empty ones dropped and the rest joined with single spaces.
func CleanHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	collectText(doc.Selection, &parts)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func collectText(s *goquery.Selection, parts *[]string) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			if t := strings.TrimSpace(c.Text()); t != "" {
				*parts = append(*parts, t)
			}
		case "#comment":
			// skip
		default:
			collectText(c, parts)
		}
	})
}

// Truncate caps s at n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
