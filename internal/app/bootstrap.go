package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"governai/internal/adapter/gemini"
	wstore "governai/internal/adapter/weaviate"
	"governai/internal/config"
	"governai/internal/index"
	"governai/internal/source"
)

// Dependencies are the external clients the app is wired from.
type Dependencies struct {
	Embedder   index.Embedder
	Generator  Generator
	Store      index.Store
	Registry   *source.Registry
	HTTPClient *http.Client
	// NSQProducer is nil when NSQD_HOST is unset.
	NSQProducer *nsq.Producer
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Sources
	registry := source.Default()
	if cfg.SourcesFile != "" {
		r, err := source.LoadFile(cfg.SourcesFile)
		if err != nil {
			return nil, fmt.Errorf("sources file error: %w", err)
		}
		registry = r
	}

	// Gemini
	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("gemini client error: %w", err)
	}

	// Vector store
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	var store index.Store = index.NewMemoryStore()
	if cfg.IndexBackend == config.IndexBackendWeaviate {
		wClient, err := weaviate.NewClient(weaviate.Config{Host: cfg.WeaviateHost, Scheme: cfg.WeaviateScheme})
		if err != nil {
			return nil, fmt.Errorf("weaviate client error: %w", err)
		}
		vecStore := wstore.NewStore(wClient)
		if err := EnsureSchemaWithRetry(ctx, vecStore, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
			return nil, fmt.Errorf("weaviate schema error: %w", err)
		}
		store = vecStore
	}
	slog.Info("index backend ready", "backend", cfg.IndexBackend)

	// NSQ Producer
	var producer *nsq.Producer
	if cfg.NSQDHost != "" {
		producer, err = nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
		if err != nil {
			return nil, fmt.Errorf("nsq producer error: %w", err)
		}
		if cfg.NSQDHTTP != "" {
			createTopics(cfg.NSQDHTTP)
		}
	}

	return &Dependencies{
		Embedder:    gemini.NewEmbedder(client, cfg.GeminiEmbeddingModel),
		Generator:   gemini.NewGenerator(client, cfg.GeminiModel),
		Store:       store,
		Registry:    registry,
		HTTPClient:  &http.Client{},
		NSQProducer: producer,
	}, nil
}

// createTopics pre-creates the topics so consumers do not fail lookups
// before the first publish.
func createTopics(nsqdHTTP string) {
	create := func(topic string) {
		url := fmt.Sprintf("http://%s/topic/create?topic=%s", nsqdHTTP, topic)
		resp, err := http.Post(url, "application/json", nil) // #nosec G107 -- URL is built from internal NSQ config, not user input
		if err != nil {
			slog.Warn("failed to create NSQ topic", "topic", topic, "error", err)
			return
		}
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close NSQ topic creation response body", "error", closeErr)
		}
	}

	go func() {
		time.Sleep(2 * time.Second)
		create(config.TopicDigestReady)
		create(config.TopicSessionRefresh)
	}()
}

// EnsureSchemaWithRetry retries the schema check while the store comes up.
func EnsureSchemaWithRetry(ctx context.Context, store VectorStore, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = store.EnsureSchema(ctx); err == nil {
			return nil
		}
		slog.Warn("failed to ensure weaviate schema, retrying...", "attempt", i+1, "error", err)
		if i < attempts-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}
