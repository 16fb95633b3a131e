package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeExchangeCompleted is emitted after a conversation exchange
	// completes.
	EventTypeExchangeCompleted = "shopbot.exchange.completed"
)

// ExchangeCompletedEvent is a transport-neutral event payload for one
// completed user/assistant exchange.
type ExchangeCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	SessionID     string      `json:"session_id"`
	Exchange      Exchange    `json:"exchange"`
	DurationMs    int64       `json:"duration_ms"`
}

// EventSource identifies the pipeline that produced the exchange.
type EventSource struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

// Exchange is the user input and assistant reply of one turn.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}
