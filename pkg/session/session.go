// Package session tracks per-conversation state: an id, an append-only
// transcript, and the assistant instance owning that conversation's memory.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anycompanyretail/shopbot/pkg/assistant"
)

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one transcript line.
type Entry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session is one conversation. Each session owns its assistant, so memory is
// never shared across sessions. Turns within a session are serialized.
type Session struct {
	id string

	mu         sync.Mutex
	assistant  *assistant.Assistant
	transcript []Entry
	createdAt  time.Time
	lastSeen   time.Time
}

func newSession(a *assistant.Assistant, now time.Time) *Session {
	s := &Session{
		id:        uuid.NewString(),
		assistant: a,
		createdAt: now,
		lastSeen:  now,
	}

	if greeting := a.Greeting(); greeting != "" {
		s.transcript = append(s.transcript, Entry{Role: RoleAssistant, Text: greeting})
	}

	return s
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string {
	return s.id
}

// Submit processes one user turn, appending both sides to the transcript on
// success. A failed turn leaves the transcript and memory unmodified.
func (s *Session) Submit(ctx context.Context, input string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply, err := s.assistant.Submit(ctx, input)
	if err != nil {
		return "", err
	}

	s.transcript = append(s.transcript,
		Entry{Role: RoleUser, Text: input},
		Entry{Role: RoleAssistant, Text: reply},
	)

	return reply, nil
}

// Clear resets the conversation. A non-empty seed restores the greeting as
// the sole transcript entry and memory record.
func (s *Session) Clear(seed string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assistant.ClearSession(seed)
	s.transcript = nil
	if seed != "" {
		s.transcript = append(s.transcript, Entry{Role: RoleAssistant, Text: seed})
	}
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ttl > 0 && now.Sub(s.lastSeen) > ttl
}
