package testutils

import (
	"context"
	"fmt"

	"github.com/anycompanyretail/shopbot/pkg/llm"
)

// MockBackend is a scripted llm.Client for tests. Each call pops the next
// completion from the script; running past the end is an error.
type MockBackend struct {
	// Completions are returned in order, one per Complete/Chat call.
	Completions []string

	// Err, when set, is returned by every call.
	Err error

	// Prompts records every prompt or rendered conversation received.
	Prompts []string

	calls int
}

func NewMockBackend(completions ...string) *MockBackend {
	return &MockBackend{Completions: completions}
}

func (m *MockBackend) Name() string {
	return "mock"
}

func (m *MockBackend) Complete(_ context.Context, prompt string, _ llm.GenerationParams) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	return m.next()
}

func (m *MockBackend) Chat(_ context.Context, messages []llm.Message, _ llm.GenerationParams) (string, error) {
	var rendered string
	for _, msg := range messages {
		rendered += string(msg.Role) + ": " + msg.Content + "\n"
	}
	m.Prompts = append(m.Prompts, rendered)
	return m.next()
}

func (m *MockBackend) next() (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.calls >= len(m.Completions) {
		return "", fmt.Errorf("mock backend exhausted after %d calls", m.calls)
	}
	out := m.Completions[m.calls]
	m.calls++
	return out, nil
}

// Calls returns the number of completed backend calls.
func (m *MockBackend) Calls() int {
	return m.calls
}

func (m *MockBackend) Close() error {
	return nil
}

var _ llm.Client = (*MockBackend)(nil)
