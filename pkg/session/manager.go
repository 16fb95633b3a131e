package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anycompanyretail/shopbot/pkg/assistant"
)

var (
	// ErrSessionNotFound is returned when a lookup names no live session.
	// Expired sessions report the same: expiry is checked at lookup time
	// and the session is dropped then.
	ErrSessionNotFound = errors.New("session not found")
)

// DefaultTTL is the idle lifetime of a session.
const DefaultTTL = 30 * time.Minute

// Factory builds a fresh assistant for a new session.
type Factory func() (*assistant.Assistant, error)

// Manager owns the live sessions. Sessions are isolated: each gets its own
// assistant from the factory; expensive handles (backend, retriever) are
// shared read-only inside the factory closure.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	factory Factory
	ttl     time.Duration
	logger  *slog.Logger

	now func() time.Time
}

// NewManager creates a session manager. A ttl of zero means DefaultTTL;
// negative disables expiry.
func NewManager(factory Factory, ttl time.Duration, logger *slog.Logger) (*Manager, error) {
	if factory == nil {
		return nil, errors.New("session manager requires an assistant factory")
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		sessions: make(map[string]*Session),
		factory:  factory,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Create starts a new session.
func (m *Manager) Create() (*Session, error) {
	a, err := m.factory()
	if err != nil {
		return nil, fmt.Errorf("building session assistant: %w", err)
	}

	s := newSession(a, m.now())

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Debug("session created", "session_id", s.ID())
	return s, nil
}

// Lookup returns the live session with the given id, refreshing its idle
// timer. Expired sessions are removed and reported as not found.
func (m *Manager) Lookup(id string) (*Session, error) {
	now := m.now()

	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok && s.expired(now, m.ttl) {
		delete(m.sessions, id)
		ok = false
		m.logger.Debug("session expired", "session_id", id)
	}
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}

	s.touch(now)
	return s, nil
}

// Resolve returns the session for id, or a fresh one when id is empty or
// names no live session.
func (m *Manager) Resolve(id string) (*Session, error) {
	if id != "" {
		if s, err := m.Lookup(id); err == nil {
			return s, nil
		}
	}
	return m.Create()
}

// Remove drops a session. Removing an unknown id is a no-op.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions, dropping any that have expired.
func (m *Manager) Len() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.expired(now, m.ttl) {
			delete(m.sessions, id)
		}
	}
	return len(m.sessions)
}
