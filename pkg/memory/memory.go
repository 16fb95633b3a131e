// Package memory provides conversation history buffers for the assistant.
//
// History records are heterogeneous: a structured Turn or a two-element pair
// of strings. Rendering prefixes each side with "Human: " / "Assistant: " so
// the transcript reads as alternating dialogue when inlined into a prompt.
package memory

import (
	"errors"
	"strings"
	"sync"
)

var (
	// ErrUnsupportedHistoryFormat is returned when a history record is
	// neither a Turn nor a two-element string pair.
	ErrUnsupportedHistoryFormat = errors.New("unsupported chat history format")
)

const (
	humanPrefix     = "\n\nHuman: "
	assistantPrefix = "\n\nAssistant: "
)

// Turn is one completed human/assistant exchange.
type Turn struct {
	Human     string
	Assistant string
}

// Pair is the loose two-element form of an exchange: input then output.
type Pair [2]string

// Buffer holds conversation history records.
// Safe for concurrent use.
type Buffer struct {
	mu      sync.RWMutex
	records []any
}

// NewBuffer creates an empty history buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append records a completed exchange.
func (b *Buffer) Append(human, assistant string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, Turn{Human: human, Assistant: assistant})
}

// AppendRecord records a raw history record. Its format is validated at
// render time, not here.
func (b *Buffer) AppendRecord(record any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, record)
}

// Len returns the number of recorded exchanges.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Records returns a copy of the raw history records.
func (b *Buffer) Records() []any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]any, len(b.records))
	copy(out, b.records)
	return out
}

// Turns returns the history as structured turns.
// Returns ErrUnsupportedHistoryFormat for records in neither supported form.
func (b *Buffer) Turns() ([]Turn, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	turns := make([]Turn, 0, len(b.records))
	for _, record := range b.records {
		turn, err := asTurn(record)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}

	return turns, nil
}

// Render formats the history as alternating Human/Assistant dialogue.
// A window of 0 renders the full history; a positive window renders only
// the most recent window exchanges.
// Returns ErrUnsupportedHistoryFormat for records in neither supported form.
func (b *Buffer) Render(window int) (string, error) {
	turns, err := b.Turns()
	if err != nil {
		return "", err
	}

	if window > 0 && len(turns) > window {
		turns = turns[len(turns)-window:]
	}

	var sb strings.Builder
	for _, turn := range turns {
		// Seeded greetings have no human side; rendering an empty
		// "Human:" line would fake a turn that never happened.
		if turn.Human != "" {
			sb.WriteString(humanPrefix)
			sb.WriteString(turn.Human)
		}
		sb.WriteString(assistantPrefix)
		sb.WriteString(turn.Assistant)
	}

	return sb.String(), nil
}

// Clear discards the history. When seed is non-empty it becomes the sole
// record, attributed to the assistant as an opening message.
func (b *Buffer) Clear(seed string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = nil
	if seed != "" {
		b.records = append(b.records, Turn{Human: "", Assistant: seed})
	}
}

func asTurn(record any) (Turn, error) {
	switch r := record.(type) {
	case Turn:
		return r, nil
	case Pair:
		return Turn{Human: r[0], Assistant: r[1]}, nil
	case [2]string:
		return Turn{Human: r[0], Assistant: r[1]}, nil
	case []string:
		if len(r) == 2 {
			return Turn{Human: r[0], Assistant: r[1]}, nil
		}
		return Turn{}, ErrUnsupportedHistoryFormat
	default:
		return Turn{}, ErrUnsupportedHistoryFormat
	}
}
