package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
)

// finalAnswerAction is the reserved action name that ends an agent turn.
const finalAnswerAction = "Final Answer"

// Directive is the parsed form of one model response in tool-agent mode:
// either a FinalAnswer or a ToolCall.
type Directive interface {
	directive()
}

// FinalAnswer carries the model's reply text for the turn.
type FinalAnswer struct {
	Text string
}

func (FinalAnswer) directive() {}

// ToolCall names a tool to dispatch. Args holds named arguments; Input holds
// the raw value when the model sent a bare string instead of an object, to
// be bound to the tool's first declared parameter.
type ToolCall struct {
	Name  string
	Args  map[string]string
	Input string
}

func (ToolCall) directive() {}

// ParseDirective interprets a model response as a Directive. A response with
// no parseable action blob is a final answer; the agent loop fails closed on
// unknown tool names at dispatch, not here.
func ParseDirective(output string) Directive {
	idx := strings.Index(output, "{")
	if idx < 0 {
		return FinalAnswer{Text: strings.TrimSpace(output)}
	}

	var raw struct {
		Action      string          `json:"action"`
		ActionInput json.RawMessage `json:"action_input"`
	}

	dec := json.NewDecoder(strings.NewReader(output[idx:]))
	if err := dec.Decode(&raw); err != nil || raw.Action == "" {
		return FinalAnswer{Text: strings.TrimSpace(output)}
	}

	if raw.Action == finalAnswerAction {
		return FinalAnswer{Text: decodeText(raw.ActionInput)}
	}

	call := ToolCall{Name: raw.Action}

	var args map[string]any
	if err := json.Unmarshal(raw.ActionInput, &args); err == nil {
		call.Args = make(map[string]string, len(args))
		for k, v := range args {
			if s, ok := v.(string); ok {
				call.Args[k] = s
			} else {
				call.Args[k] = fmt.Sprint(v)
			}
		}
		return call
	}

	call.Input = decodeText(raw.ActionInput)
	return call
}

func decodeText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
