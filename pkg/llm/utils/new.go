// Package llmutils is the llm utility package
package llmutils

import (
	"fmt"

	"github.com/anycompanyretail/shopbot/pkg/llm"
	"github.com/anycompanyretail/shopbot/pkg/llm/anthropic"
	"github.com/anycompanyretail/shopbot/pkg/llm/ollama"
	"github.com/anycompanyretail/shopbot/pkg/llm/openai"
)

type NewClientOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
}

func NewClient(o *NewClientOpts) (llm.Client, error) {
	switch o.ProviderType {
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			APIKey:  o.APIKey,
		})
	case "openai":
		return openai.NewClient(openai.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			APIKey:  o.APIKey,
		})
	case "ollama":
		return ollama.NewClient(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", o.ProviderType)
	}
}
