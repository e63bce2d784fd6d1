package reranker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"governai/internal/adapter/reranker"
)

func TestClient_Rerank_Providers(t *testing.T) {
	tests := []struct {
		provider  string
		key       string
		wantModel string
		wantTopN  bool
	}{
		{provider: "jina", key: "k1", wantModel: "jina-reranker-v1-base-en"},
		{provider: "cohere", key: "k2", wantModel: "rerank-english-v3.0", wantTopN: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/rerank", r.URL.Path)
				assert.Equal(t, "Bearer "+tt.key, r.Header.Get("Authorization"))

				var body map[string]interface{}
				json.NewDecoder(r.Body).Decode(&body)
				assert.Equal(t, tt.wantModel, body["model"])
				assert.Equal(t, "q", body["query"])
				_, hasTopN := body["top_n"]
				assert.Equal(t, tt.wantTopN, hasTopN)

				json.NewEncoder(w).Encode(map[string]interface{}{
					"results": []map[string]interface{}{
						{"index": 0, "relevance_score": 0.2},
						{"index": 1, "relevance_score": 0.9},
						{"index": 7, "relevance_score": 0.5},
					},
				})
			}))
			defer ts.Close()

			client := reranker.NewClient(tt.provider, tt.key)
			client.SetBaseURL(ts.URL + "/v1/rerank")

			indices, err := client.Rerank(context.Background(), "q", []string{"d1", "d2"})
			assert.NoError(t, err)
			assert.Equal(t, []int{1, 0}, indices)
		})
	}
}

func TestClient_Rerank_None(t *testing.T) {
	client := reranker.NewClient("none", "")
	indices, err := client.Rerank(context.Background(), "q", []string{"d1", "d2"})
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1}, indices)
}

func TestClient_Rerank_ErrorHandling(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"invalid query"}`))
	}))
	defer ts.Close()

	client := reranker.NewClient("jina", "k1")
	client.SetBaseURL(ts.URL)

	_, err := client.Rerank(context.Background(), "q", []string{"d1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "jina api error: 400")
	assert.Contains(t, err.Error(), `{"detail":"invalid query"}`)
}

func TestSupported(t *testing.T) {
	assert.True(t, reranker.Supported("jina"))
	assert.True(t, reranker.Supported("cohere"))
	assert.False(t, reranker.Supported("none"))
}
