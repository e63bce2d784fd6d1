package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultReleaseGrace is how long a replaced session keeps its chunks so
// requests already holding it can finish.
const DefaultReleaseGrace = 2 * time.Minute

const releaseTimeout = 30 * time.Second

type SessionBuilder interface {
	Build(ctx context.Context, w Window) (*Session, error)
}

// Sessions caches the latest session per window. Concurrent requests for the
// same window share one build.
type Sessions struct {
	builder SessionBuilder
	ttl     time.Duration

	grace   time.Duration

	mu       sync.RWMutex
	cache    map[Window]*Session
	retiring map[string]*time.Timer
	retired  map[string]*Session
	group    singleflight.Group
	now      func() time.Time
}

func NewSessions(b SessionBuilder, ttl time.Duration) *Sessions {
	return &Sessions{
		builder: b,
		ttl:     ttl,
		grace:    DefaultReleaseGrace,
		cache:    make(map[Window]*Session),
		retiring: make(map[string]*time.Timer),
		retired:  make(map[string]*Session),
		now:      time.Now,
	}
}

// SetReleaseGrace sets the delay between replacing a session and freeing its
// chunks. Zero frees them immediately.
func (s *Sessions) SetReleaseGrace(d time.Duration) {
	s.mu.Lock()
	s.grace = d
	s.mu.Unlock()
}

// Get returns a cached session younger than the TTL, or builds one. refresh
// forces a build.
func (s *Sessions) Get(ctx context.Context, w Window, refresh bool) (*Session, error) {
	if !refresh {
		if cur := s.cached(w); cur != nil {
			return cur, nil
		}
	}

	v, err, _ := s.group.Do(w.key(), func() (interface{}, error) {
		// the build outlives a single caller's cancellation
		next, err := s.builder.Build(context.WithoutCancel(ctx), w)
		if err != nil {
			return nil, err
		}
		s.store(ctx, next)
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (s *Sessions) cached(w Window) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.cache[w]
	if !ok {
		return nil
	}
	if s.ttl > 0 && s.now().Sub(cur.BuiltAt) >= s.ttl {
		return nil
	}
	return cur
}

func (s *Sessions) store(ctx context.Context, next *Session) {
	s.mu.Lock()
	old := s.cache[next.Window]
	s.cache[next.Window] = next
	s.mu.Unlock()

	if old != nil && old != next {
		s.retire(context.WithoutCancel(ctx), old)
	}
}

// retire frees a replaced session's chunks once the grace period has passed.
func (s *Sessions) retire(ctx context.Context, old *Session) {
	if old.IndexErr != nil {
		return
	}

	s.mu.Lock()
	if s.grace <= 0 {
		s.mu.Unlock()
		release(ctx, old)
		return
	}
	s.retired[old.ID] = old
	s.retiring[old.ID] = time.AfterFunc(s.grace, func() {
		s.mu.Lock()
		sess, ok := s.retired[old.ID]
		delete(s.retired, old.ID)
		delete(s.retiring, old.ID)
		s.mu.Unlock()
		if ok {
			release(ctx, sess)
		}
	})
	s.mu.Unlock()
}

func release(ctx context.Context, sess *Session) {
	ctx, cancel := context.WithTimeout(ctx, releaseTimeout)
	defer cancel()
	if err := sess.Release(ctx); err != nil {
		slog.WarnContext(ctx, "failed to release session", "session_id", sess.ID, "error", err)
	}
}

// List returns the cached sessions ordered by window.
func (s *Sessions) List() []*Session {
	s.mu.RLock()
	out := make([]*Session, 0, len(s.cache))
	for _, sess := range s.cache {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Window.Days != out[j].Window.Days {
			return out[i].Window.Days < out[j].Window.Days
		}
		return out[i].Window.Limit < out[j].Window.Limit
	})
	return out
}

// Close releases every cached session, including replaced sessions still in
// their grace period.
func (s *Sessions) Close(ctx context.Context) {
	s.mu.Lock()
	pending := make([]*Session, 0, len(s.cache)+len(s.retired))
	for _, sess := range s.cache {
		pending = append(pending, sess)
	}
	for id, sess := range s.retired {
		s.retiring[id].Stop()
		pending = append(pending, sess)
	}
	s.cache = make(map[Window]*Session)
	s.retiring = make(map[string]*time.Timer)
	s.retired = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range pending {
		if sess.IndexErr != nil {
			continue
		}
		release(ctx, sess)
	}
}
