package assistant

import "errors"

var (
	// ErrConfiguration is returned at construction when a required
	// collaborator is missing for the selected mode or the template lacks
	// a mode-required slot. Never raised after a backend call.
	ErrConfiguration = errors.New("assistant misconfigured")
)
