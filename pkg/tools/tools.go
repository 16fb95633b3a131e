// Package tools provides the registry of actions the agent can invoke and
// the retail tool set itself.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownTool is returned when a dispatch names a tool that is not
// registered. Dispatch fails closed: unknown names abort the turn rather
// than being echoed back to the model.
var ErrUnknownTool = errors.New("unknown tool")

// ExecutionError wraps a tool handler failure. It is recoverable: the agent
// surfaces the message to the model as an observation instead of aborting
// the turn.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// HandlerFunc executes a tool with named string arguments.
type HandlerFunc func(ctx context.Context, args map[string]string) (string, error)

// Param describes one named tool argument.
type Param struct {
	Name        string
	Description string
}

// Descriptor describes a tool: its name, model-facing usage description,
// ordered parameters, and handler.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param

	// DirectReturn marks the tool's observation as the final answer for
	// the turn, skipping further model calls.
	DirectReturn bool

	Handler HandlerFunc
}

// Result is the outcome of a dispatch.
type Result struct {
	Observation  string
	DirectReturn bool
}

// Registry holds the tool set available to the agent.
// Safe for concurrent use after construction.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]*Descriptor
}

// NewRegistry creates a registry from the given descriptors.
// Duplicate or empty names are construction errors.
func NewRegistry(descriptors ...*Descriptor) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*Descriptor, len(descriptors)),
	}

	for _, d := range descriptors {
		if d.Name == "" {
			return nil, errors.New("tool descriptor has empty name")
		}
		if d.Handler == nil {
			return nil, fmt.Errorf("tool %q has no handler", d.Name)
		}
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", d.Name)
		}
		r.byName[d.Name] = d
		r.order = append(r.order, d.Name)
	}

	return r, nil
}

// Get returns the descriptor for the named tool.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// List returns all descriptors in registration order.
func (r *Registry) List() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns all tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Dispatch runs the named tool with the given arguments.
// Unknown names return ErrUnknownTool. Every declared parameter must be
// bound before the handler runs; a missing argument is wrapped in
// *ExecutionError like any handler failure, so the model can re-ask
// instead of the turn aborting.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]string) (Result, error) {
	d, ok := r.Get(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	for _, p := range d.Params {
		if _, bound := args[p.Name]; !bound {
			return Result{}, &ExecutionError{
				Tool: name,
				Err:  fmt.Errorf("missing argument %q", p.Name),
			}
		}
	}

	observation, err := d.Handler(ctx, args)
	if err != nil {
		return Result{}, &ExecutionError{Tool: name, Err: err}
	}

	return Result{
		Observation:  observation,
		DirectReturn: d.DirectReturn,
	}, nil
}

// Render formats the tool set for inclusion in an agent prompt: one line
// per tool with its parameters and description.
func (r *Registry) Render() string {
	var sb strings.Builder

	for i, d := range r.List() {
		if i > 0 {
			sb.WriteString("\n")
		}

		params := make([]string, 0, len(d.Params))
		for _, p := range d.Params {
			params = append(params, p.Name)
		}

		sb.WriteString(d.Name)
		sb.WriteString("(")
		sb.WriteString(strings.Join(params, ", "))
		sb.WriteString("): ")
		sb.WriteString(d.Description)
	}

	return sb.String()
}
