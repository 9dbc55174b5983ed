// Package session keeps logged-in users in memory: one Session per
// browser cookie, each with its own store.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"wallet/internal/apiclient"
	"wallet/internal/cache"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/notify"
	"wallet/internal/store"
)

// CookieName is the cookie carrying the session id.
const CookieName = "wallet_session"

type Session struct {
	ID        string
	Token     string
	User      core.User
	Store     *store.Store
	ExpiresAt time.Time

	mu    sync.Mutex
	flash *notify.Notification
}

// Context returns ctx authenticated with the session's token.
func (s *Session) Context(ctx context.Context) context.Context {
	return apiclient.WithToken(ctx, s.Token)
}

// SetFlash queues a notification for the next rendered page. A newer
// one replaces an unread one.
func (s *Session) SetFlash(n *notify.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = n
}

// PopFlash returns the queued notification, if any, and clears it.
func (s *Session) PopFlash() *notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.flash
	s.flash = nil
	return n
}

// Manager creates and looks up sessions. Sessions expire after the
// configured TTL or when their token does, whichever comes first.
type Manager struct {
	sessions *cache.LRUCache[*Session]
	ttl      time.Duration
	newStore func() *store.Store
	logger   *log.Logger
	metrics  metrics.Recorder
	now      func() time.Time
	active   atomic.Int64
}

type Option func(*Manager)

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l.WithComponent(log.ComponentSession) }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(m *Manager) { m.metrics = r }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager keeps at most maxSessions sessions; the least recently used
// one is dropped first. newStore builds the store of each new session.
func NewManager(maxSessions int, ttl time.Duration, newStore func() *store.Store, opts ...Option) *Manager {
	m := &Manager{
		sessions: cache.NewLRUCache[*Session](maxSessions, ttl),
		ttl:      ttl,
		newStore: newStore,
		logger:   log.Discard(),
		metrics:  metrics.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.sessions.OnEvict(func(id string, s *Session) {
		s.Store.Reset()
		m.metrics.SetActiveSessions(int(m.active.Add(-1)))
		m.logger.Debug("Session evicted", log.FieldSessionID, id, "user", s.User.Email)
	})
	return m
}

// Cache exposes the session cache to the cleanup manager.
func (m *Manager) Cache() cache.Cleaner {
	return m.sessions
}

// Create starts a session for a successful login.
func (m *Manager) Create(token string, user core.User) *Session {
	ttl := m.lifetime(token)
	s := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		Store:     m.newStore(),
		ExpiresAt: m.now().Add(ttl),
	}
	m.sessions.SetWithTTL(s.ID, s, ttl)
	m.metrics.SetActiveSessions(int(m.active.Add(1)))
	m.logger.Info("Session created", log.FieldSessionID, s.ID, "user", user.Email, "expires_at", s.ExpiresAt)
	return s
}

// Get returns the live session with id.
func (m *Manager) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	s, ok := m.sessions.Get(id)
	m.metrics.CacheLookup("sessions", ok)
	return s, ok
}

// Delete ends a session, e.g. on logout.
func (m *Manager) Delete(id string) {
	s, ok := m.sessions.Remove(id)
	if !ok {
		return
	}
	s.Store.Reset()
	m.metrics.SetActiveSessions(int(m.active.Add(-1)))
	m.logger.Info("Session deleted", log.FieldSessionID, id, "user", s.User.Email)
}

// Active is the number of live sessions, expired ones included until
// they are cleaned.
func (m *Manager) Active() int {
	return int(m.active.Load())
}

// lifetime bounds the configured TTL by the token's own expiry.
func (m *Manager) lifetime(token string) time.Duration {
	ttl := m.ttl
	if exp, ok := apiclient.TokenExpiry(token); ok {
		if left := exp.Sub(m.now()); left < ttl {
			ttl = max(left, 0)
		}
	}
	return ttl
}
