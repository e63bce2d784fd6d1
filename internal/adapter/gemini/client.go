package gemini

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrMissingAPIKey = errors.New("gemini api key not configured")

// NewClient opens one genai client shared by the embedder and the generator.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*genai.Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	opts = append(opts, option.WithAPIKey(apiKey))
	return genai.NewClient(ctx, opts...)
}
