package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stromtarif/stromtarif/pkg/log"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

type session struct {
	registry *Registry
	lastUsed time.Time
}

// Sessions owns one Registry per session ID. Sessions that were not used for
// the TTL are dropped by Sweep.
type Sessions struct {
	catalog Catalog
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessions returns an empty session store whose registries start from
// catalog.
func NewSessions(catalog Catalog, ttl time.Duration) *Sessions {
	return &Sessions{
		catalog:  catalog,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Get returns the registry for id. An unknown, expired or empty id starts a
// new session and the new id is returned.
func (s *Sessions) Get(id string) (string, *Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sess, ok := s.sessions[id]; ok && id != "" {
		if now.Sub(sess.lastUsed) < s.ttl {
			sess.lastUsed = now
			return id, sess.registry
		}
		delete(s.sessions, id)
	}

	id = uuid.NewString()
	sess := &session{
		registry: New(s.catalog),
		lastUsed: now,
	}
	s.sessions[id] = sess
	return id, sess.registry
}

// Lookup returns the registry for an existing session without creating one.
func (s *Sessions) Lookup(id string) (*Registry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || s.now().Sub(sess.lastUsed) >= s.ttl {
		return nil, false
	}
	sess.lastUsed = s.now()
	return sess.registry, true
}

// Ephemeral returns a registry holding the catalog that belongs to no
// session. Changes to it are lost.
func (s *Sessions) Ephemeral() *Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return New(s.catalog)
}

// Len returns the number of sessions, including expired ones not yet swept.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var removed int
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) >= s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Ctx(ctx).DebugContext(ctx, "swept expired sessions", slog.Int("count", n))
			}
		}
	}
}
