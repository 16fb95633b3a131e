// Package assistant orchestrates conversations: it composes a prompt
// template, a memory buffer, an optional retriever, and a completion backend
// into one of three modes (plain chat, document-grounded QA, tool-using
// agent) and produces the assistant's reply for each user turn.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anycompanyretail/shopbot/pkg/llm"
	"github.com/anycompanyretail/shopbot/pkg/memory"
	"github.com/anycompanyretail/shopbot/pkg/prompt"
	"github.com/anycompanyretail/shopbot/pkg/retriever"
	"github.com/anycompanyretail/shopbot/pkg/tools"
)

// Mode selects the conversation pipeline.
type Mode string

const (
	// ModeChat is plain conversation with history, no retrieval or tools.
	ModeChat Mode = "chat"
	// ModeQA grounds each answer in retrieved catalog documents.
	ModeQA Mode = "qa"
	// ModeAgent runs the bounded tool-using reasoning loop.
	ModeAgent Mode = "agent"
)

const (
	defaultMaxIterations = 2
	defaultWindow        = 3
)

// Config holds the collaborators and settings for an Assistant.
type Config struct {
	// Model is the model identifier, used for logging only; the backend
	// handle carries the actual model binding.
	Model string

	// Backend is the completion backend. Required.
	Backend llm.Client

	// Mode selects the pipeline. Required.
	Mode Mode

	// Template overrides the mode's default prompt template. It must
	// carry the mode-required slots: {history, input} for chat,
	// {context, question} for qa.
	Template *prompt.Template

	// Retriever supplies grounding documents. Required for ModeQA and
	// for the retrieval-backed tools in ModeAgent.
	Retriever *retriever.Retriever

	// Tools is the agent's tool registry. Required for ModeAgent.
	Tools *tools.Registry

	// Memory is a pre-existing history buffer. A fresh one is created
	// when nil.
	Memory *memory.Buffer

	// Params are the generation parameters passed on every backend call.
	Params llm.GenerationParams

	// TokenLimit bounds the assembled qa prompt; lower-ranked documents
	// are dropped first when retrieval would overflow it. Defaults to
	// 4096.
	TokenLimit int

	// MaxIterations caps model calls per agent turn. Defaults to 2.
	MaxIterations int

	// Window limits rendered history to the last N exchanges. Defaults
	// to 3; negative means unwindowed.
	Window int

	// Greeting, when set, seeds agent memory as the opening assistant
	// message at construction and is the default ClearSession seed.
	Greeting string
}

// Assistant produces a reply per user turn, updating memory as a side
// effect. Aborted turns leave memory unmodified.
type Assistant struct {
	model     string
	backend   llm.Client
	mode      Mode
	template  *prompt.Template
	condense  *prompt.Template
	retriever *retriever.Retriever
	tools     *tools.Registry
	memory    *memory.Buffer
	params    llm.GenerationParams

	tokenLimit    int
	maxIterations int
	window        int
	greeting      string

	logger *slog.Logger
}

// New validates the configuration and builds an Assistant. All
// configuration failures surface here, before any backend call.
func New(cfg Config, logger *slog.Logger) (*Assistant, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("%w: completion backend is required", ErrConfiguration)
	}

	switch cfg.Mode {
	case ModeChat, ModeQA, ModeAgent:
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrConfiguration, cfg.Mode)
	}

	if cfg.Mode == ModeQA && cfg.Retriever == nil {
		return nil, fmt.Errorf("%w: qa mode requires a retriever", ErrConfiguration)
	}
	if cfg.Mode == ModeAgent && cfg.Tools == nil {
		return nil, fmt.Errorf("%w: agent mode requires a tool registry", ErrConfiguration)
	}

	tmpl := cfg.Template
	if tmpl == nil {
		switch cfg.Mode {
		case ModeChat:
			tmpl = prompt.New(DefaultChatTemplate)
		case ModeQA:
			tmpl = prompt.New(DefaultQATemplate)
		}
	}
	if err := checkSlots(cfg.Mode, tmpl); err != nil {
		return nil, err
	}

	mem := cfg.Memory
	if mem == nil {
		mem = memory.NewBuffer()
	}

	tokenLimit := cfg.TokenLimit
	if tokenLimit <= 0 {
		tokenLimit = defaultTokenLimit
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	window := cfg.Window
	if window == 0 {
		window = defaultWindow
	}
	if window < 0 {
		window = 0
	}

	if logger == nil {
		logger = slog.Default()
	}

	a := &Assistant{
		model:         cfg.Model,
		backend:       cfg.Backend,
		mode:          cfg.Mode,
		template:      tmpl,
		condense:      prompt.New(condenseTemplate),
		retriever:     cfg.Retriever,
		tools:         cfg.Tools,
		memory:        mem,
		params:        cfg.Params,
		tokenLimit:    tokenLimit,
		maxIterations: maxIterations,
		window:        window,
		greeting:      cfg.Greeting,
		logger:        logger,
	}

	if a.mode == ModeAgent && a.greeting != "" && a.memory.Len() == 0 {
		a.memory.Clear(a.greeting)
	}

	return a, nil
}

// Mode returns the configured conversation mode.
func (a *Assistant) Mode() Mode {
	return a.mode
}

// Memory returns the assistant's history buffer.
func (a *Assistant) Memory() *memory.Buffer {
	return a.memory
}

// Submit processes one user turn and returns the reply text. On success the
// (user, assistant) exchange is appended to memory; on error memory is left
// untouched.
func (a *Assistant) Submit(ctx context.Context, input string) (string, error) {
	var (
		answer string
		err    error
	)

	switch a.mode {
	case ModeChat:
		answer, err = a.runChat(ctx, input)
	case ModeQA:
		answer, err = a.runQA(ctx, input)
	case ModeAgent:
		answer, err = a.runAgent(ctx, input)
	}
	if err != nil {
		return "", err
	}

	a.memory.Append(input, answer)
	return answer, nil
}

// ClearSession resets memory. A non-empty seed becomes the sole record,
// attributed to the assistant as an opening message.
func (a *Assistant) ClearSession(seed string) {
	a.memory.Clear(seed)
	a.logger.Debug("session cleared", "mode", a.mode, "seeded", seed != "")
}

// Greeting returns the configured opening message.
func (a *Assistant) Greeting() string {
	return a.greeting
}

func (a *Assistant) runChat(ctx context.Context, input string) (string, error) {
	history, err := a.memory.Render(a.window)
	if err != nil {
		return "", err
	}

	rendered, err := a.template.Render(map[string]string{
		"history": history,
		"input":   input,
	})
	if err != nil {
		return "", err
	}

	out, err := a.backend.Complete(ctx, rendered, a.params)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

func (a *Assistant) runQA(ctx context.Context, input string) (string, error) {
	question := input
	if a.memory.Len() > 0 {
		condensed, err := a.condenseQuestion(ctx, input)
		if err != nil {
			return "", err
		}
		question = condensed
	}

	docs, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}

	history, err := a.memory.Render(a.window)
	if err != nil {
		return "", err
	}

	// Budget for documents is whatever the ceiling leaves after history,
	// question, and the template text itself.
	budget := a.tokenLimit - estimateTokens(history) - estimateTokens(input) - estimateTokens(DefaultQATemplate)
	kept := fitContext(docs, budget)
	if len(kept) < len(docs) {
		a.logger.Debug("dropped low-ranked documents to fit token budget",
			"retrieved", len(docs), "kept", len(kept))
	}

	texts := make([]string, 0, len(kept))
	for _, doc := range kept {
		texts = append(texts, doc.Text)
	}

	rendered, err := a.template.Render(map[string]string{
		"context":  strings.Join(texts, "\n"),
		"question": input,
	})
	if err != nil {
		return "", err
	}

	out, err := a.backend.Complete(ctx, rendered, a.params)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

func (a *Assistant) condenseQuestion(ctx context.Context, input string) (string, error) {
	history, err := a.memory.Render(a.window)
	if err != nil {
		return "", err
	}

	rendered, err := a.condense.Render(map[string]string{
		"chat_history": history,
		"question":     input,
	})
	if err != nil {
		return "", err
	}

	out, err := a.backend.Complete(ctx, rendered, a.params)
	if err != nil {
		return "", err
	}

	condensed := strings.TrimSpace(out)
	if condensed == "" {
		return input, nil
	}

	a.logger.Debug("condensed follow-up question", "original_len", len(input), "condensed_len", len(condensed))
	return condensed, nil
}

// agentState tracks the tool-agent turn.
type agentState int

const (
	stateAwaitingModel agentState = iota
	stateToolDispatch
	stateDone
)

func (a *Assistant) runAgent(ctx context.Context, input string) (string, error) {
	history, err := a.memory.Render(a.window)
	if err != nil {
		return "", err
	}

	var (
		state       = stateAwaitingModel
		scratchpad  strings.Builder
		pendingCall ToolCall
		lastText    string
		answer      string
		calls       int
	)

	for state != stateDone {
		switch state {
		case stateAwaitingModel:
			if calls >= a.maxIterations {
				// Cap reached without a final answer: surface the best
				// text produced so far rather than looping or retrying.
				a.logger.Warn("agent iteration cap reached", "calls", calls)
				answer = lastText
				state = stateDone
				continue
			}

			out, err := a.backend.Complete(ctx, a.agentPrompt(history, input, scratchpad.String()), a.params)
			if err != nil {
				return "", err
			}
			calls++

			switch d := ParseDirective(out).(type) {
			case FinalAnswer:
				answer = d.Text
				state = stateDone
			case ToolCall:
				lastText = strings.TrimSpace(out)
				pendingCall = d
				state = stateToolDispatch
			}

		case stateToolDispatch:
			res, err := a.dispatch(ctx, pendingCall)

			var execErr *tools.ExecutionError
			switch {
			case errors.As(err, &execErr):
				// Recoverable: hand the failure back to the model as an
				// observation so it can apologize or re-ask.
				a.logger.Warn("tool execution failed", "tool", execErr.Tool, "error", execErr.Err)
				writeScratchpad(&scratchpad, pendingCall.Name, fmt.Sprintf("The tool failed: %v", execErr.Err))
				state = stateAwaitingModel
			case err != nil:
				// Unknown tool names and other dispatch failures abort
				// the turn.
				return "", err
			case res.DirectReturn:
				answer = res.Observation
				state = stateDone
			default:
				writeScratchpad(&scratchpad, pendingCall.Name, res.Observation)
				lastText = res.Observation
				state = stateAwaitingModel
			}
		}
	}

	return answer, nil
}

func (a *Assistant) dispatch(ctx context.Context, call ToolCall) (tools.Result, error) {
	args := call.Args
	if args == nil {
		args = map[string]string{}
		// A bare string input binds to the tool's first declared
		// parameter.
		if d, ok := a.tools.Get(call.Name); ok && len(d.Params) > 0 {
			args[d.Params[0].Name] = call.Input
		}
	}

	return a.tools.Dispatch(ctx, call.Name, args)
}

func (a *Assistant) agentPrompt(history, input, scratchpad string) string {
	sections := []string{
		agentPreamble,
		a.tools.Render(),
		agentFormatInstructions,
		"Previous conversation history:\n<history>" + history + "</history>",
		"Human: " + input,
	}
	if scratchpad != "" {
		sections = append(sections, scratchpad)
	}

	return strings.Join(sections, "\n\n")
}

func writeScratchpad(sb *strings.Builder, tool, observation string) {
	sb.WriteString("Action: ")
	sb.WriteString(tool)
	sb.WriteString("\nObservation: ")
	sb.WriteString(observation)
	sb.WriteString("\n")
}

func checkSlots(mode Mode, tmpl *prompt.Template) error {
	var required []string
	switch mode {
	case ModeChat:
		required = []string{"history", "input"}
	case ModeQA:
		required = []string{"context", "question"}
	default:
		return nil
	}

	have := make(map[string]bool)
	for _, slot := range tmpl.Slots() {
		have[slot] = true
	}
	for _, slot := range required {
		if !have[slot] {
			return fmt.Errorf("%w: template for mode %q is missing slot %q", ErrConfiguration, mode, slot)
		}
	}

	return nil
}
