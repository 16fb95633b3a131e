// Package prompt provides slot-based prompt templates.
//
// Templates use single-brace slots, e.g. "Answer using {context}". Rendering
// fails when a slot has no binding, which surfaces template drift at the call
// site instead of sending a half-filled prompt to the model.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

var slotPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Template is a parsed prompt template.
type Template struct {
	raw   string
	slots []string
}

// New parses a template string and records its slot names.
func New(raw string) *Template {
	matches := slotPattern.FindAllStringSubmatch(raw, -1)

	seen := make(map[string]bool, len(matches))
	slots := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			slots = append(slots, m[1])
		}
	}

	return &Template{raw: raw, slots: slots}
}

// Slots returns the template's slot names in order of first appearance.
func (t *Template) Slots() []string {
	out := make([]string, len(t.slots))
	copy(out, t.slots)
	return out
}

// Render substitutes values into the template's slots.
// Returns an error if any slot has no binding. Extra values are ignored.
func (t *Template) Render(values map[string]string) (string, error) {
	for _, slot := range t.slots {
		if _, ok := values[slot]; !ok {
			return "", fmt.Errorf("prompt template missing value for slot %q", slot)
		}
	}

	out := t.raw
	for _, slot := range t.slots {
		out = strings.ReplaceAll(out, "{"+slot+"}", values[slot])
	}

	return out, nil
}
