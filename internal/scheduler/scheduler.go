package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"governai/internal/article"
	"governai/internal/config"
	"governai/internal/digest"
	"governai/internal/middleware"
	"governai/internal/pipeline"
)

type SessionSource interface {
	Get(ctx context.Context, w pipeline.Window, refresh bool) (*pipeline.Session, error)
}

type DigestBuilder interface {
	Build(ctx context.Context, items []article.Article) digest.Digest
}

// DigestReadyEvent is the body published on config.TopicDigestReady.
type DigestReadyEvent struct {
	SessionID     string          `json:"session_id"`
	Window        pipeline.Window `json:"window"`
	Articles      int             `json:"articles"`
	Digest        digest.Digest   `json:"digest"`
	CorrelationID string          `json:"correlation_id"`
}

// Scheduler periodically rebuilds the default window and publishes its digest.
type Scheduler struct {
	cron      *cron.Cron
	window    pipeline.Window
	sessions  SessionSource
	digester  DigestBuilder
	publisher Publisher
}

func New(spec string, w pipeline.Window, s SessionSource, d DigestBuilder, p Publisher) (*Scheduler, error) {
	c := cron.New()
	sch := &Scheduler{
		cron:      c,
		window:    w,
		sessions:  s,
		digester:  d,
		publisher: p,
	}

	if _, err := c.AddFunc(spec, sch.runScheduled); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	return sch, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("digest scheduler started", "days", s.window.Days)
}

// Stop halts the schedule and waits for a running job, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("digest scheduler stop timed out")
	}
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = middleware.WithCorrelationID(ctx, uuid.NewString())

	if err := s.RunOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "scheduled digest failed", "error", err)
	}
}

// RunOnce forces a fresh session, digests it and publishes the result.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	sess, err := s.sessions.Get(ctx, s.window, true)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	d := s.digester.Build(ctx, sess.Items)

	body, err := json.Marshal(DigestReadyEvent{
		SessionID:     sess.ID,
		Window:        sess.Window,
		Articles:      len(sess.Items),
		Digest:        d,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err != nil {
		return fmt.Errorf("marshal digest event: %w", err)
	}

	if err := s.publisher.Publish(config.TopicDigestReady, body); err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}

	slog.InfoContext(ctx, "digest published",
		"session_id", sess.ID,
		"articles", len(sess.Items),
		"collective_outcome", d.Collective.Outcome,
		"sources", len(d.Sources),
	)
	return nil
}
