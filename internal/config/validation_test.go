package config_test

import (
	"errors"
	"testing"

	"governai/internal/config"

	"github.com/stretchr/testify/assert"
)

func validConfig() config.Config {
	return config.Config{
		GeminiAPIKey:   "key",
		DefaultDays:    7,
		DefaultLimit:   50,
		IndexBackend:   config.IndexBackendMemory,
		EmbedBatchSize: 100,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
		errIs   error
	}{
		{
			name:   "Valid Config",
			mutate: func(c *config.Config) {},
		},
		{
			name:    "Missing Gemini Key",
			mutate:  func(c *config.Config) { c.GeminiAPIKey = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:    "Window Not Allowed",
			mutate:  func(c *config.Config) { c.DefaultDays = 10 },
			wantErr: true,
			errIs:   config.ErrInvalidConfig,
		},
		{
			name:    "Limit Too Large",
			mutate:  func(c *config.Config) { c.DefaultLimit = 500 },
			wantErr: true,
			errIs:   config.ErrInvalidConfig,
		},
		{
			name:    "Limit Zero",
			mutate:  func(c *config.Config) { c.DefaultLimit = 0 },
			wantErr: true,
			errIs:   config.ErrInvalidConfig,
		},
		{
			name:    "Unknown Index Backend",
			mutate:  func(c *config.Config) { c.IndexBackend = "faiss" },
			wantErr: true,
			errIs:   config.ErrInvalidConfig,
		},
		{
			name:    "Rerank Provider Without Key",
			mutate:  func(c *config.Config) { c.RerankProvider = "jina" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:   "Weaviate Backend",
			mutate: func(c *config.Config) { c.IndexBackend = config.IndexBackendWeaviate },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errIs != nil {
					assert.True(t, errors.Is(err, tt.errIs))
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsAllowedWindow(t *testing.T) {
	for _, d := range []int{7, 14, 30} {
		assert.True(t, config.IsAllowedWindow(d), d)
	}
	for _, d := range []int{0, 1, 8, 31} {
		assert.False(t, config.IsAllowedWindow(d), d)
	}
}
