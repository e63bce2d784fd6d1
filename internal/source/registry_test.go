package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"governai/internal/source"
)

func TestRegistry_ResolveName(t *testing.T) {
	reg := source.Default()

	tests := []struct {
		name     string
		link     string
		provider string
		want     string
	}{
		{"Known Domain", "https://hai.stanford.edu/x", "", "Stanford HAI"},
		{"Known Domain Wins Over Provider", "https://www.wired.com/story/ai", "WIRED", "Wired AI"},
		{"Subdomain Match", "https://en.unesco.org/news/ai", "", "UNESCO AI Ethics"},
		{"Case Insensitive Host", "https://HAI.Stanford.EDU/news", "", "Stanford HAI"},
		{"Unlisted Uses Provider", "https://example.com/a", "Example News", "Example News"},
		{"Unlisted No Provider", "https://example.com/a", "", source.Unknown},
		{"Empty Link", "", "", source.Unknown},
		{"Unparseable Link", "://bad", "  ", source.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.ResolveName(tt.link, tt.provider))
		})
	}
}

func TestRegistry_DomainName_FirstMatchWins(t *testing.T) {
	reg := &source.Registry{
		Domains: []source.Domain{
			{Fragment: "harvard.edu", Name: "Harvard"},
			{Fragment: "cyber.harvard.edu", Name: "Berkman Klein"},
		},
	}
	name, ok := reg.DomainName("https://cyber.harvard.edu/story")
	assert.True(t, ok)
	assert.Equal(t, "Harvard", name)
}

func TestRegistry_SearchQuery(t *testing.T) {
	reg := &source.Registry{Topic: "AI ethics OR responsible AI", TrustedSites: []string{"a.org", "b.com"}}
	assert.Equal(t, "AI ethics OR responsible AI site:a.org OR site:b.com", reg.SearchQuery())

	q := source.Default().SearchQuery()
	assert.Contains(t, q, "site:technologyreview.com OR site:techpolicy.press")
	assert.Contains(t, q, "site:carnegieendowment.org")
}

func TestDefault_Consistent(t *testing.T) {
	reg := source.Default()
	require.NoError(t, reg.Validate())
	assert.Len(t, reg.Feeds, 13)
	assert.Len(t, reg.TrustedSites, 12)
	assert.Equal(t, "MIT Tech Review", reg.Feeds[0].Name)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	content := `
feeds:
  - name: Local Feed
    url: http://localhost/feed.xml
topic: AI governance
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	reg, err := source.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []source.Feed{{Name: "Local Feed", URL: "http://localhost/feed.xml"}}, reg.Feeds)
	assert.Equal(t, "AI governance", reg.Topic)
	assert.Len(t, reg.TrustedSites, 12)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := source.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feeds:\n  - name: NoURL\n"), 0o600))
	_, err = source.LoadFile(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("feeds: [unterminated"), 0o600))
	_, err = source.LoadFile(path)
	assert.Error(t, err)
}
