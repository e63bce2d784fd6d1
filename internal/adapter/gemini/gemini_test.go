package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"governai/internal/adapter/gemini"
)

func mockGemini(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := gemini.NewClient(context.Background(), "")
	assert.ErrorIs(t, err, gemini.ErrMissingAPIKey)
}

func TestEmbedder_Embed(t *testing.T) {
	ts := mockGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": map[string]interface{}{"values": []float32{0.1, 0.2, 0.3}},
		})
	})

	client, err := gemini.NewClient(context.Background(), "test-key", option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	defer client.Close()

	vec, err := gemini.NewEmbedder(client, "").Embed(context.Background(), "hello world")
	require.NoError(t, err)
	if assert.Len(t, vec, 3) {
		assert.Equal(t, float32(0.1), vec[0])
	}
}

func TestEmbedder_EmbedBatch(t *testing.T) {
	ts := mockGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":batchEmbedContents"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embeddings": []map[string]interface{}{
				{"values": []float32{1, 0}},
				{"values": []float32{0, 1}},
			},
		})
	})

	client, err := gemini.NewClient(context.Background(), "test-key", option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	defer client.Close()

	e := gemini.NewEmbedder(client, "")
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)

	_, err = e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	assert.Error(t, err)

	vecs, err = e.EmbedBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestGenerator_Generate(t *testing.T) {
	ts := mockGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]interface{}{{"text": "- insight one\n"}, {"text": "- insight two\n"}},
				}},
			},
		})
	})

	client, err := gemini.NewClient(context.Background(), "test-key", option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	defer client.Close()

	out, err := gemini.NewGenerator(client, "").Generate(context.Background(), "summarise")
	require.NoError(t, err)
	assert.Equal(t, "- insight one\n- insight two", out)
}

func TestGenerator_Generate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "Bad Request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":{"code":400,"message":"boom","status":"INVALID_ARGUMENT"}}`))
			},
		},
		{
			name: "No Candidates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"candidates":[]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := mockGemini(t, tt.handler)
			client, err := gemini.NewClient(context.Background(), "k", option.WithEndpoint(ts.URL))
			require.NoError(t, err)
			defer client.Close()

			_, err = gemini.NewGenerator(client, "").Generate(context.Background(), "p")
			assert.Error(t, err)
		})
	}
}
