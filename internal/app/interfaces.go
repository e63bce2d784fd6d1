package app

import (
	"context"

	"governai/internal/index"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VectorStore is an index.Store whose schema must exist before use.
type VectorStore interface {
	index.Store
	EnsureSchema(ctx context.Context) error
}
