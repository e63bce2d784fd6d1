package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"governai/internal/analytics"
	"governai/internal/article"
	"governai/internal/digest"
	"governai/internal/middleware"
	"governai/internal/pipeline"
	"governai/internal/source"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type ArticlesResponse struct {
	Session  *pipeline.Session `json:"session"`
	Articles []article.Article `json:"articles"`
}

type DigestResponse struct {
	Session *pipeline.Session `json:"session"`
	Digest  digest.Digest     `json:"digest"`
}

type InsightsResponse struct {
	Session  *pipeline.Session `json:"session"`
	Insights analytics.Report  `json:"insights"`
}

type SourcesResponse struct {
	Feeds        []source.Feed   `json:"feeds"`
	Domains      []source.Domain `json:"domains"`
	TrustedSites []string        `json:"trustedSites"`
	SearchQuery  string          `json:"searchQuery"`
}

func (h *Handler) Articles(w http.ResponseWriter, r *http.Request) {
	win, ok := h.window(w, r, true)
	if !ok {
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	sess, err := h.service.Session(r.Context(), win, refresh)
	if err != nil {
		h.sessionError(r.Context(), w, err)
		return
	}

	items := sess.Items
	if items == nil {
		items = []article.Article{}
	}
	h.writeData(r.Context(), w, ArticlesResponse{Session: sess, Articles: items}, map[string]int{"count": len(items)})
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
		Days     int    `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "INVALID_JSON", "Invalid JSON", http.StatusBadRequest)
		return
	}

	win, err := h.service.Window(req.Days, 0)
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	ans, err := h.service.Ask(r.Context(), req.Question, win)
	if err != nil {
		if errors.Is(err, ErrEmptyQuestion) {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
			return
		}
		h.sessionError(r.Context(), w, err)
		return
	}
	h.writeData(r.Context(), w, ans, nil)
}

func (h *Handler) Digest(w http.ResponseWriter, r *http.Request) {
	win, ok := h.window(w, r, false)
	if !ok {
		return
	}
	d, sess, err := h.service.Digest(r.Context(), win)
	if err != nil {
		h.sessionError(r.Context(), w, err)
		return
	}
	h.writeData(r.Context(), w, DigestResponse{Session: sess, Digest: d}, nil)
}

func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	win, ok := h.window(w, r, false)
	if !ok {
		return
	}
	report, sess, err := h.service.Insights(r.Context(), win)
	if err != nil {
		h.sessionError(r.Context(), w, err)
		return
	}
	h.writeData(r.Context(), w, InsightsResponse{Session: sess, Insights: report}, nil)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	win, ok := h.window(w, r, true)
	if !ok {
		return
	}
	sess, err := h.service.Refresh(r.Context(), win)
	if err != nil {
		h.sessionError(r.Context(), w, err)
		return
	}
	h.writeData(r.Context(), w, sess, map[string]int{"count": len(sess.Items)})
}

func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	reg := h.service.Registry()
	h.writeData(r.Context(), w, SourcesResponse{
		Feeds:        reg.Feeds,
		Domains:      reg.Domains,
		TrustedSites: reg.TrustedSites,
		SearchQuery:  reg.SearchQuery(),
	}, map[string]int{"feeds": len(reg.Feeds), "domains": len(reg.Domains)})
}

// window reads days (and limit when allowed) from the query string.
func (h *Handler) window(w http.ResponseWriter, r *http.Request, withLimit bool) (pipeline.Window, bool) {
	q := r.URL.Query()
	days, err := intParam(q.Get("days"))
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "days must be an integer", http.StatusBadRequest)
		return pipeline.Window{}, false
	}
	limit := 0
	if withLimit {
		if limit, err = intParam(q.Get("limit")); err != nil {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", "limit must be an integer", http.StatusBadRequest)
			return pipeline.Window{}, false
		}
	}

	win, err := h.service.Window(days, limit)
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return pipeline.Window{}, false
	}
	return win, true
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", v, err)
	}
	return n, nil
}

func (h *Handler) sessionError(ctx context.Context, w http.ResponseWriter, err error) {
	slog.ErrorContext(ctx, "failed to load session", "error", err)
	h.writeError(ctx, w, "INTERNAL_ERROR", "failed to load news", http.StatusInternalServerError)
}

func (h *Handler) writeData(ctx context.Context, w http.ResponseWriter, data interface{}, meta map[string]int) {
	resp := map[string]interface{}{"data": data}
	if meta != nil {
		resp["meta"] = meta
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
