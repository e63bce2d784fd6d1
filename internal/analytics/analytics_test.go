package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"governai/internal/article"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 10, 0, 0, 0, time.UTC)
}

func fixture() []article.Article {
	return []article.Article{
		{Source: "Wired AI", Title: "China and USA race on AI rules", Summary: "Regulation regulation everywhere.", Published: day(2)},
		{Source: "Stanford HAI", Title: "India drafts policy", Summary: "The Indian government drafts AI policy.", Published: day(1)},
		{Source: "Wired AI", Title: "Policy in the UK", Summary: "The ukraine angle is noise.", Published: day(2)},
	}
}

func TestCountryMentions(t *testing.T) {
	got := CountryMentions(fixture())
	assert.Equal(t, []Count{
		{Label: "USA", Count: 1},
		{Label: "China", Count: 1},
		{Label: "India", Count: 1},
		{Label: "UK", Count: 1},
	}, got)
}

func TestCountryMentions_Empty(t *testing.T) {
	assert.Empty(t, CountryMentions(nil))
}

func TestTopKeywords(t *testing.T) {
	got := TopKeywords(fixture(), 3)
	assert.Equal(t, []Count{
		{Label: "policy", Count: 3},
		{Label: "regulation", Count: 2},
		{Label: "drafts", Count: 2},
	}, got)
}

func TestWordFrequencies_DropsStopwords(t *testing.T) {
	items := []article.Article{{Title: "This will shape that policy", Summary: "with these rules"}}
	got := WordFrequencies(items, 10)
	assert.Equal(t, []Count{{Label: "shape", Count: 1}, {Label: "policy", Count: 1}, {Label: "rules", Count: 1}}, got)
}

func TestSourceVolume(t *testing.T) {
	assert.Equal(t, []Count{
		{Label: "Stanford HAI", Count: 1},
		{Label: "Wired AI", Count: 2},
	}, SourceVolume(fixture()))
}

func TestDailyTrend(t *testing.T) {
	assert.Equal(t, []DailyCount{
		{Date: "2025-06-01", Count: 1},
		{Date: "2025-06-02", Count: 2},
	}, DailyTrend(fixture()))
}

func TestSourceDailyTrend(t *testing.T) {
	assert.Equal(t, []SourceDailyCount{
		{Date: "2025-06-01", Source: "Stanford HAI", Count: 1},
		{Date: "2025-06-02", Source: "Wired AI", Count: 2},
	}, SourceDailyTrend(fixture()))
}

func TestSummarize(t *testing.T) {
	r := Summarize(fixture())
	assert.Equal(t, 3, r.Articles)
	assert.Len(t, r.Keywords, 13)
	assert.NotEmpty(t, r.WordCloud)
	assert.Len(t, r.SourceVolume, 2)
}
