package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"governai/internal/pipeline"
)

const (
	ToolAsk          = "governai_ask"
	ToolDigest       = "governai_digest"
	ToolListArticles = "governai_list_articles"
	ToolListSources  = "governai_list_sources"
)

type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type AskArgs struct {
	Question string `json:"question"`
	Days     int    `json:"days,omitempty"`
}

type WindowArgs struct {
	Days  int `json:"days,omitempty"`
	Limit int `json:"limit,omitempty"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var daysProperty = map[string]interface{}{
	"type":        "integer",
	"description": "Recency window in days: 7, 14 or 30. Defaults to 7.",
	"enum":        []int{7, 14, 30},
}

var tools = []Tool{
	{
		Name: ToolAsk,
		Description: `Question answering over recent AI governance news. Retrieves the most relevant article excerpts from the chosen window and answers from them only, stating uncertainty when the excerpts do not cover the question.

USAGE EXAMPLE:
governai_ask(question="What did the EU AI Office publish this week?", days=7)`,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"question": map[string]string{
					"type":        "string",
					"description": "The question to answer",
				},
				"days": daysProperty,
			},
			"required": []string{"question"},
		},
	},
	{
		Name: ToolDigest,
		Description: `Digest tool. Five bullet points summarising the window's most important developments, followed by three trend bullets per source.

USAGE EXAMPLE:
governai_digest(days=14)`,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"days": daysProperty,
			},
		},
	},
	{
		Name: ToolListArticles,
		Description: `Lists the aggregated articles of a window, newest first, with source, publish date and link.

USAGE EXAMPLE:
governai_list_articles(days=7, limit=20)`,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"days": daysProperty,
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Max articles to return (default 50).",
					"minimum":     1,
					"maximum":     100,
				},
			},
		},
	},
	{
		Name: ToolListSources,
		Description: `Lists the feeds and trusted sites the aggregator reads from.

USAGE EXAMPLE:
governai_list_sources()`,
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	},
}

func (h *Handler) callTool(ctx context.Context, id interface{}, params CallParams) *JSONRPCResponse {
	var (
		text string
		err  error
	)

	switch params.Name {
	case ToolAsk:
		var args AskArgs
		if err := unmarshalArgs(params.Arguments, &args); err != nil {
			resp := makeErrorResponse(id, ErrInvalidParams, "Invalid ask arguments")
			return &resp
		}
		if strings.TrimSpace(args.Question) == "" {
			resp := makeErrorResponse(id, ErrInvalidParams, "question is required")
			return &resp
		}
		text, err = h.ask(ctx, args)
	case ToolDigest:
		var args WindowArgs
		if err := unmarshalArgs(params.Arguments, &args); err != nil {
			resp := makeErrorResponse(id, ErrInvalidParams, "Invalid digest arguments")
			return &resp
		}
		text, err = h.digest(ctx, args)
	case ToolListArticles:
		var args WindowArgs
		if err := unmarshalArgs(params.Arguments, &args); err != nil {
			resp := makeErrorResponse(id, ErrInvalidParams, "Invalid list arguments")
			return &resp
		}
		text, err = h.listArticles(ctx, args)
	case ToolListSources:
		text, err = h.listSources()
	default:
		slog.WarnContext(ctx, "tool not found", "tool", params.Name)
		resp := makeErrorResponse(id, ErrMethodNotFound, "Method not found: "+params.Name)
		return &resp
	}

	if errors.Is(err, pipeline.ErrInvalidWindow) {
		resp := makeErrorResponse(id, ErrInvalidParams, err.Error())
		return &resp
	}
	if err != nil {
		slog.ErrorContext(ctx, "tool execution failed", "tool", params.Name, "error", err)
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      id,
			Result: ToolResult{
				Content: []ToolContent{{Type: "text", Text: "Error: " + err.Error()}},
				IsError: true,
			},
		}
	}

	slog.InfoContext(ctx, "tool execution completed", "tool", params.Name)
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: ToolResult{
			Content: []ToolContent{{Type: "text", Text: text}},
		},
	}
}

// unmarshalArgs treats absent arguments as an empty object.
func unmarshalArgs(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (h *Handler) ask(ctx context.Context, args AskArgs) (string, error) {
	w, err := h.news.Window(args.Days, 0)
	if err != nil {
		return "", err
	}
	ans, err := h.news.Ask(ctx, args.Question, w)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(ans.Text)
	if len(ans.Sources) > 0 {
		sb.WriteString("\n\nSources:\n")
		for i, c := range ans.Sources {
			fmt.Fprintf(&sb, "%d. %s (%s, %s)", i+1, c.Title, c.Source, c.Published.Format("2006-01-02"))
			if c.Link != "" {
				fmt.Fprintf(&sb, " %s", c.Link)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func (h *Handler) digest(ctx context.Context, args WindowArgs) (string, error) {
	w, err := h.news.Window(args.Days, 0)
	if err != nil {
		return "", err
	}
	d, sess, err := h.news.Digest(ctx, w)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Digest of %d articles from the last %d days\n\n", len(sess.Items), w.Days)
	sb.WriteString(d.Collective.Text)
	for _, s := range d.Sources {
		fmt.Fprintf(&sb, "\n\n## %s\n%s", s.Source, s.Text)
	}
	return sb.String(), nil
}

func (h *Handler) listArticles(ctx context.Context, args WindowArgs) (string, error) {
	w, err := h.news.Window(args.Days, args.Limit)
	if err != nil {
		return "", err
	}
	sess, err := h.news.Session(ctx, w, false)
	if err != nil {
		return "", err
	}
	if len(sess.Items) == 0 {
		return "No articles found.", nil
	}

	type SimpleArticle struct {
		Source    string `json:"source"`
		Title     string `json:"title"`
		Published string `json:"published"`
		Link      string `json:"link,omitempty"`
	}
	out := make([]SimpleArticle, len(sess.Items))
	for i, a := range sess.Items {
		out[i] = SimpleArticle{
			Source:    a.Source,
			Title:     a.Title,
			Published: a.Published.Format("2006-01-02T15:04:05Z07:00"),
			Link:      a.Link,
		}
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal articles: %w", err)
	}
	return string(b), nil
}

func (h *Handler) listSources() (string, error) {
	reg := h.news.Registry()
	b, err := json.MarshalIndent(struct {
		Feeds        interface{} `json:"feeds"`
		TrustedSites []string    `json:"trusted_sites"`
	}{reg.Feeds, reg.TrustedSites}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sources: %w", err)
	}
	return string(b), nil
}
