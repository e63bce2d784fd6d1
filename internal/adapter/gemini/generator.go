package gemini

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

const DefaultGenerationModel = "gemini-1.5-flash"

var ErrEmptyResponse = errors.New("model returned no text")

type Generator struct {
	model *genai.GenerativeModel
	name  string
}

func NewGenerator(client *genai.Client, model string) *Generator {
	if model == "" {
		model = DefaultGenerationModel
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0.3)
	return &Generator{model: m, name: model}
}

// Generate returns the concatenated text parts of the first candidate.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "generating content", "model", g.name, "prompt_length", len(prompt))
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
