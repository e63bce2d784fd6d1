package news

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"governai/internal/analytics"
	"governai/internal/article"
	"governai/internal/digest"
	"governai/internal/pipeline"
	"governai/internal/retrieval"
	"governai/internal/source"
)

var ErrEmptyQuestion = errors.New("question is required")

type SessionStore interface {
	Get(ctx context.Context, w pipeline.Window, refresh bool) (*pipeline.Session, error)
	List() []*pipeline.Session
}

type Responder interface {
	Answer(ctx context.Context, question string, r retrieval.Retriever) retrieval.Answer
}

type Digester interface {
	Build(ctx context.Context, items []article.Article) digest.Digest
}

// Service is what both the HTTP API and the MCP tools call into.
type Service struct {
	sessions     SessionStore
	responder    Responder
	digester     Digester
	registry     *source.Registry
	defaultDays  int
	defaultLimit int

	mu      sync.Mutex
	digests map[pipeline.Window]sessionDigest
	group   singleflight.Group
}

type sessionDigest struct {
	sessionID string
	digest    digest.Digest
}

func NewService(s SessionStore, r Responder, d Digester, reg *source.Registry, defaultDays, defaultLimit int) *Service {
	return &Service{
		sessions:     s,
		responder:    r,
		digester:     d,
		registry:     reg,
		defaultDays:  defaultDays,
		defaultLimit: defaultLimit,
		digests:      make(map[pipeline.Window]sessionDigest),
	}
}

// Window fills zero values with the configured defaults and validates the result.
func (s *Service) Window(days, limit int) (pipeline.Window, error) {
	if days == 0 {
		days = s.defaultDays
	}
	if limit == 0 {
		limit = s.defaultLimit
	}
	return pipeline.NewWindow(days, limit)
}

func (s *Service) Session(ctx context.Context, w pipeline.Window, refresh bool) (*pipeline.Session, error) {
	return s.sessions.Get(ctx, w, refresh)
}

func (s *Service) Sessions() []*pipeline.Session {
	return s.sessions.List()
}

// Ask answers a question against the window's session.
func (s *Service) Ask(ctx context.Context, question string, w pipeline.Window) (retrieval.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return retrieval.Answer{}, ErrEmptyQuestion
	}
	sess, err := s.sessions.Get(ctx, w, false)
	if err != nil {
		return retrieval.Answer{}, err
	}
	return s.responder.Answer(ctx, question, sess), nil
}

// Digest returns the window's digest, generating it at most once per session.
func (s *Service) Digest(ctx context.Context, w pipeline.Window) (digest.Digest, *pipeline.Session, error) {
	sess, err := s.sessions.Get(ctx, w, false)
	if err != nil {
		return digest.Digest{}, nil, err
	}

	if d, ok := s.cachedDigest(w, sess.ID); ok {
		return d, sess, nil
	}

	v, _, _ := s.group.Do(sess.ID, func() (interface{}, error) {
		if d, ok := s.cachedDigest(w, sess.ID); ok {
			return d, nil
		}
		d := s.digester.Build(context.WithoutCancel(ctx), sess.Items)
		s.mu.Lock()
		s.digests[w] = sessionDigest{sessionID: sess.ID, digest: d}
		s.mu.Unlock()
		return d, nil
	})
	return v.(digest.Digest), sess, nil
}

func (s *Service) cachedDigest(w pipeline.Window, sessionID string) (digest.Digest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached, ok := s.digests[w]
	if !ok || cached.sessionID != sessionID {
		return digest.Digest{}, false
	}
	return cached.digest, true
}

func (s *Service) Insights(ctx context.Context, w pipeline.Window) (analytics.Report, *pipeline.Session, error) {
	sess, err := s.sessions.Get(ctx, w, false)
	if err != nil {
		return analytics.Report{}, nil, err
	}
	return analytics.Summarize(sess.Items), sess, nil
}

func (s *Service) Refresh(ctx context.Context, w pipeline.Window) (*pipeline.Session, error) {
	return s.sessions.Get(ctx, w, true)
}

func (s *Service) Registry() *source.Registry {
	return s.registry
}
