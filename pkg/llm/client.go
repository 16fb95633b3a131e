// Package llm provides interfaces and implementations for language model backends.
package llm

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message sent to or received from a backend.
type Message struct {
	Role    Role
	Content string
}

// GenerationParams are sampling parameters passed through to the backend.
// Zero values mean "use the provider default".
type GenerationParams struct {
	Temperature float64
	MaxTokens   uint
}

// Client generates text from a language model backend.
type Client interface {
	// Name returns the provider name, e.g. "anthropic".
	Name() string

	// Complete sends a single-prompt request and returns the generated text.
	Complete(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// Chat sends a multi-message conversation and returns the generated reply.
	Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error)

	// Close releases any resources held by the client.
	Close() error
}
