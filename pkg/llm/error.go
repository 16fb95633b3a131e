package llm

import "errors"

var (
	// ErrBackend is returned when a model backend call fails.
	ErrBackend = errors.New("model backend call failed")

	// ErrEmptyCompletion is returned when a backend responds with no content.
	ErrEmptyCompletion = errors.New("model returned empty completion")
)
