package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const sessionStateFile = "session.json"

// SessionState records the chat client's current server-side session so that
// a new "shopbot chat" invocation can resume the same conversation.
type SessionState struct {
	SessionID string    `json:"session_id"`
	APITarget string    `json:"api_target"`
	SavedAt   time.Time `json:"saved_at"`
}

// SaveSessionState persists the session state as JSON in the .shopbot/ dir.
func (m *Manager) SaveSessionState(overrideDir string, state *SessionState) error {
	if state == nil {
		return errors.New("cannot save nil session state")
	}

	target, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	state.SavedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}

	path := filepath.Join(target, sessionStateFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}

	return nil
}

// LoadSessionState reads the persisted session state. Returns (nil, nil) when
// no state file exists, which callers treat as "start a new conversation".
func (m *Manager) LoadSessionState(overrideDir string) (*SessionState, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(target, sessionStateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session state: %w", err)
	}

	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}

	return &state, nil
}

// ClearSessionState removes the persisted session state. Clearing a state
// that does not exist is not an error.
func (m *Manager) ClearSessionState(overrideDir string) error {
	target, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(target, sessionStateFile)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session state: %w", err)
	}

	return nil
}
