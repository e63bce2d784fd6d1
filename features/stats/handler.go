package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"governai/internal/middleware"
	"governai/internal/pipeline"
)

type SessionLister interface {
	List() []*pipeline.Session
}

type ChunkCounter interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	sessions SessionLister
	store    ChunkCounter
	feeds    int
}

func NewHandler(s SessionLister, c ChunkCounter, feeds int) *Handler {
	return &Handler{sessions: s, store: c, feeds: feeds}
}

type SessionStats struct {
	ID       string    `json:"id"`
	Days     int       `json:"days"`
	Limit    int       `json:"limit"`
	Articles int       `json:"articles"`
	Sources  int       `json:"sources"`
	Chunks   int       `json:"chunks"`
	Indexed  bool      `json:"indexed"`
	BuiltAt  time.Time `json:"builtAt"`
}

type StatsResponse struct {
	Feeds        int            `json:"feeds"`
	StoredChunks int            `json:"stored_chunks"`
	Sessions     []SessionStats `json:"sessions"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "getting stats", "correlationId", correlationID)

	chunks, err := h.store.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	sessions := h.sessions.List()
	resp := StatsResponse{
		Feeds:        h.feeds,
		StoredChunks: chunks,
		Sessions:     make([]SessionStats, 0, len(sessions)),
	}
	for _, s := range sessions {
		sources := make(map[string]struct{})
		for _, it := range s.Items {
			sources[it.Source] = struct{}{}
		}
		resp.Sessions = append(resp.Sessions, SessionStats{
			ID:       s.ID,
			Days:     s.Window.Days,
			Limit:    s.Window.Limit,
			Articles: len(s.Items),
			Sources:  len(sources),
			Chunks:   s.Chunks,
			Indexed:  s.IndexErr == nil,
			BuiltAt:  s.BuiltAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
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
