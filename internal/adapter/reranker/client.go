package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

type provider struct {
	url   string
	model string
	// extra fields merged into the request body
	extra func(docs []string) map[string]interface{}
}

var providers = map[string]provider{
	"jina": {
		url:   "https://api.jina.ai/v1/rerank",
		model: "jina-reranker-v1-base-en",
	},
	"cohere": {
		url:   "https://api.cohere.ai/v1/rerank",
		model: "rerank-english-v3.0",
		extra: func(docs []string) map[string]interface{} {
			return map[string]interface{}{"top_n": len(docs), "return_documents": false}
		},
	},
}

// Supported reports whether name is a known reranking provider.
func Supported(name string) bool {
	_, ok := providers[name]
	return ok
}

type Client struct {
	apiKey   string
	provider string
	client   *http.Client
	baseURL  string
}

func NewClient(provider, apiKey string) *Client {
	return &Client{
		provider: provider,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// Rerank returns document indices, most relevant first. An unknown provider
// keeps the input order.
func (c *Client) Rerank(ctx context.Context, query string, docs []string) ([]int, error) {
	p, ok := providers[c.provider]
	if !ok || len(docs) == 0 {
		indices := make([]int, len(docs))
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	url := p.url
	if c.baseURL != "" {
		url = c.baseURL
	}

	reqBody := map[string]interface{}{
		"model":     p.model,
		"query":     query,
		"documents": docs,
	}
	if p.extra != nil {
		for k, v := range p.extra(docs) {
			reqBody[k] = v
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s api error: %d: %s", c.provider, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Results []struct {
			Index int     `json:"index"`
			Score float64 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	sort.SliceStable(result.Results, func(i, j int) bool {
		return result.Results[i].Score > result.Results[j].Score
	})

	indices := make([]int, 0, len(docs))
	for _, r := range result.Results {
		if r.Index >= 0 && r.Index < len(docs) {
			indices = append(indices, r.Index)
		}
	}
	return indices, nil
}
