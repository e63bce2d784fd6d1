package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// AllowedWindows are the recency windows, in days, a caller may request.
var AllowedWindows = []int{7, 14, 30}

const (
	IndexBackendMemory   = "memory"
	IndexBackendWeaviate = "weaviate"

	MaxLimit = 100
)

type Config struct {
	GeminiAPIKey         string `envconfig:"GEMINI_API_KEY"`
	GeminiModel          string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GeminiEmbeddingModel string `envconfig:"GEMINI_EMBEDDING_MODEL" default:"gemini-embedding-001"`
	EmbedBatchSize       int    `envconfig:"EMBED_BATCH_SIZE" default:"100"`

	SerperAPIKey      string `envconfig:"SERPER_API_KEY"`
	SerperURL         string `envconfig:"SERPER_URL" default:"https://google.serper.dev/search"`
	SearchResultCount int    `envconfig:"SEARCH_RESULT_COUNT" default:"20"`

	FeedTimeout time.Duration `envconfig:"FEED_TIMEOUT" default:"15s"`
	SourcesFile string        `envconfig:"SOURCES_FILE"`

	DefaultDays         int           `envconfig:"DEFAULT_DAYS" default:"7"`
	DefaultLimit        int           `envconfig:"DEFAULT_LIMIT" default:"50"`
	SessionTTL          time.Duration `envconfig:"SESSION_TTL" default:"15m"`
	SessionReleaseGrace time.Duration `envconfig:"SESSION_RELEASE_GRACE" default:"2m"`

	IndexBackend   string `envconfig:"INDEX_BACKEND" default:"memory"`
	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	RerankProvider string `envconfig:"RERANK_PROVIDER"`
	RerankAPIKey   string `envconfig:"RERANK_API_KEY"`

	// NSQ is optional: without NSQD_HOST digest events are only logged.
	NSQDHost       string `envconfig:"NSQD_HOST"`
	NSQDHTTP       string `envconfig:"NSQD_HTTP"`
	NSQLookupd     string `envconfig:"NSQ_LOOKUPD"`
	DigestSchedule string `envconfig:"DIGEST_SCHEDULE"`

	// Server
	ServerPort   int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	Debug        bool   `envconfig:"DEBUG" default:"false"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
	}
	if !IsAllowedWindow(c.DefaultDays) {
		return fmt.Errorf("%w: DEFAULT_DAYS must be one of %v", ErrInvalidConfig, AllowedWindows)
	}
	if c.DefaultLimit < 1 || c.DefaultLimit > MaxLimit {
		return fmt.Errorf("%w: DEFAULT_LIMIT must be between 1 and %d", ErrInvalidConfig, MaxLimit)
	}
	if c.IndexBackend != IndexBackendMemory && c.IndexBackend != IndexBackendWeaviate {
		return fmt.Errorf("%w: INDEX_BACKEND %q", ErrInvalidConfig, c.IndexBackend)
	}
	if c.RerankProvider != "" && c.RerankAPIKey == "" {
		return fmt.Errorf("%w: RERANK_API_KEY", ErrMissingRequired)
	}
	if c.EmbedBatchSize < 1 {
		return fmt.Errorf("%w: EMBED_BATCH_SIZE", ErrInvalidConfig)
	}
	return nil
}

func IsAllowedWindow(days int) bool {
	return slices.Contains(AllowedWindows, days)
}
