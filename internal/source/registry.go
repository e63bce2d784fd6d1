package source

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Unknown is the source name given to a search result whose domain and
// provider name are both unrecognised.
const Unknown = "Unknown"

const defaultTopic = "AI ethics OR responsible AI"

var ErrEmptyRegistry = errors.New("registry has no feeds or trusted sites")

type Feed struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

type Domain struct {
	Fragment string `yaml:"fragment" json:"fragment"`
	Name     string `yaml:"name" json:"name"`
}

// Registry is the fixed catalogue of publishers the aggregator reads from.
// Slices keep their declared order: feeds are fetched in that order and the
// first matching domain fragment wins.
type Registry struct {
	Feeds        []Feed   `yaml:"feeds" json:"feeds"`
	Domains      []Domain `yaml:"domains" json:"domains"`
	TrustedSites []string `yaml:"trusted_sites" json:"trustedSites"`
	Topic        string   `yaml:"topic" json:"topic"`
}

func Default() *Registry {
	return &Registry{
		Feeds: []Feed{
			{Name: "MIT Tech Review", URL: "https://www.technologyreview.com/feed/"},
			{Name: "Tech Policy Press", URL: "https://techpolicy.press/feed/"},
			{Name: "The Markup", URL: "https://themarkup.org/feed"},
			{Name: "Wired AI", URL: "https://www.wired.com/feed/category/ai/latest/rss"},
			{Name: "Rest of World", URL: "https://restofworld.org/feed/"},
			{Name: "OECD AI Observatory", URL: "https://oecd.ai/feed.xml"},
			{Name: "UNESCO AI Ethics", URL: "https://en.unesco.org/artificial-intelligence/feed"},
			{Name: "AI Now Institute", URL: "https://ainowinstitute.org/feed.xml"},
			{Name: "Harvard Berkman Klein Center", URL: "https://cyber.harvard.edu/rss.xml"},
			{Name: "Stanford HAI", URL: "https://hai.stanford.edu/rss.xml"},
			{Name: "Brookings TechTank", URL: "https://www.brookings.edu/blog/techtank/feed/"},
			{Name: "AI Policy Exchange (India)", URL: "https://aipolicyexchange.org/feed/"},
			{Name: "Carnegie AI Policy Initiative", URL: "https://carnegieendowment.org/rss/topic/1867"},
		},
		Domains: []Domain{
			{Fragment: "technologyreview.com", Name: "MIT Tech Review"},
			{Fragment: "techpolicy.press", Name: "Tech Policy Press"},
			{Fragment: "themarkup.org", Name: "The Markup"},
			{Fragment: "wired.com", Name: "Wired AI"},
			{Fragment: "restofworld.org", Name: "Rest of World"},
			{Fragment: "oecd.ai", Name: "OECD AI Observatory"},
			{Fragment: "unesco.org", Name: "UNESCO AI Ethics"},
			{Fragment: "ainowinstitute.org", Name: "AI Now Institute"},
			{Fragment: "cyber.harvard.edu", Name: "Harvard Berkman Klein Center"},
			{Fragment: "hai.stanford.edu", Name: "Stanford HAI"},
			{Fragment: "brookings.edu", Name: "Brookings TechTank"},
			{Fragment: "aipolicyexchange.org", Name: "AI Policy Exchange (India)"},
			{Fragment: "carnegieendowment.org", Name: "Carnegie AI Policy Initiative"},
		},
		TrustedSites: []string{
			"technologyreview.com", "techpolicy.press", "restofworld.org", "wired.com",
			"brookings.edu", "oecd.ai", "unesco.org", "ainowinstitute.org",
			"cyber.harvard.edu", "hai.stanford.edu", "aipolicyexchange.org", "carnegieendowment.org",
		},
		Topic: defaultTopic,
	}
}

// LoadFile reads a YAML registry. Sections missing from the file keep the
// built-in values.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is from application config
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var fromFile Registry
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	reg := Default()
	if len(fromFile.Feeds) > 0 {
		reg.Feeds = fromFile.Feeds
	}
	if len(fromFile.Domains) > 0 {
		reg.Domains = fromFile.Domains
	}
	if len(fromFile.TrustedSites) > 0 {
		reg.TrustedSites = fromFile.TrustedSites
	}
	if fromFile.Topic != "" {
		reg.Topic = fromFile.Topic
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) Validate() error {
	if len(r.Feeds) == 0 && len(r.TrustedSites) == 0 {
		return ErrEmptyRegistry
	}
	for i, f := range r.Feeds {
		if f.Name == "" || f.URL == "" {
			return fmt.Errorf("feed %d: name and url are required", i)
		}
	}
	for i, d := range r.Domains {
		if d.Fragment == "" || d.Name == "" {
			return fmt.Errorf("domain %d: fragment and name are required", i)
		}
	}
	return nil
}

// SearchQuery composes the single web-search query restricted to the trusted sites.
func (r *Registry) SearchQuery() string {
	if len(r.TrustedSites) == 0 {
		return r.Topic
	}
	return r.Topic + " site:" + strings.Join(r.TrustedSites, " OR site:")
}

// DomainName returns the display name for the first fragment contained in the
// link's host.
func (r *Registry) DomainName(link string) (string, bool) {
	host := hostOf(link)
	if host == "" {
		return "", false
	}
	for _, d := range r.Domains {
		if strings.Contains(host, strings.ToLower(d.Fragment)) {
			return d.Name, true
		}
	}
	return "", false
}

// ResolveName maps a search result to a display source: domain table first,
// then the provider-supplied name, then Unknown.
func (r *Registry) ResolveName(link, providerName string) string {
	if name, ok := r.DomainName(link); ok {
		return name
	}
	if p := strings.TrimSpace(providerName); p != "" {
		return p
	}
	return Unknown
}

func hostOf(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
