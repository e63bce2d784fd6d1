package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"governai/internal/middleware"
	"governai/internal/pipeline"
)

type SessionRefresher interface {
	Get(ctx context.Context, w pipeline.Window, refresh bool) (*pipeline.Session, error)
}

type WindowFunc func(days, limit int) (pipeline.Window, error)

type RefreshConsumer struct {
	sessions SessionRefresher
	window   WindowFunc
}

func NewRefreshConsumer(s SessionRefresher, window WindowFunc) *RefreshConsumer {
	return &RefreshConsumer{sessions: s, window: window}
}

// HandleMessage rebuilds the requested window. Bad messages are finished
// without retry; a failed build is returned so NSQ requeues it.
func (c *RefreshConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload RefreshPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		slog.Error("invalid refresh payload", "error", err)
		return nil
	}

	correlationID := payload.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	w, err := c.window(payload.Days, payload.Limit)
	if err != nil {
		slog.WarnContext(ctx, "rejecting refresh request", "days", payload.Days, "limit", payload.Limit, "error", err)
		return nil
	}

	sess, err := c.sessions.Get(ctx, w, true)
	if err != nil {
		slog.ErrorContext(ctx, "refresh failed", "days", w.Days, "error", err)
		return fmt.Errorf("refresh window %d days: %w", w.Days, err)
	}

	slog.InfoContext(ctx, "session refreshed", "session_id", sess.ID, "days", w.Days, "articles", len(sess.Items))
	return nil
}
