package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent shopbot configuration stored as config.toml
// in the .shopbot/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Model       ModelConfig       `toml:"model"`
	Generation  GenerationConfig  `toml:"generation"`
	Assistant   AssistantConfig   `toml:"assistant"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Orders      OrdersConfig      `toml:"orders"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// ModelConfig holds the LLM backend settings.
type ModelConfig struct {
	Provider string `toml:"provider,omitempty"`
	Name     string `toml:"name,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// GenerationConfig holds sampling parameters passed through to the backend.
type GenerationConfig struct {
	Temperature float64 `toml:"temperature,omitempty"`
	MaxTokens   uint    `toml:"max_tokens,omitempty"`
}

// AssistantConfig holds orchestration settings for the conversational engine.
type AssistantConfig struct {
	// Mode selects the orchestration strategy: "chat", "qa", or "agent".
	Mode string `toml:"mode,omitempty"`

	// TopK is the number of documents retrieved per question in qa mode.
	TopK uint `toml:"top_k,omitempty"`

	// MaxIterations caps the agent's model round trips per turn.
	MaxIterations uint `toml:"max_iterations,omitempty"`

	// Window is the number of recent exchanges kept in agent memory.
	Window uint `toml:"window,omitempty"`

	// TokenLimit bounds the assembled retrieval context in qa mode.
	TokenLimit uint `toml:"token_limit,omitempty"`

	// Greeting seeds a cleared conversation's history.
	Greeting string `toml:"greeting,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// OrdersConfig holds order store settings. Provider is "fixture", "sqlite",
// or "postgres"; Target is a file path or DSN depending on the provider.
type OrdersConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server (e.g. shopbot chat, shopbot search). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EventStreamConfig holds conversation event publishing settings.
type EventStreamConfig struct {
	Enabled bool     `toml:"enabled,omitempty"`
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"model.provider": {
		get: func(c *Config) string { return c.Model.Provider },
		set: func(c *Config, v string) error { c.Model.Provider = v; return nil },
	},
	"model.name": {
		get: func(c *Config) string { return c.Model.Name },
		set: func(c *Config, v string) error { c.Model.Name = v; return nil },
	},
	"model.target": {
		get: func(c *Config) string { return c.Model.Target },
		set: func(c *Config, v string) error { c.Model.Target = v; return nil },
	},
	"generation.temperature": {
		get: func(c *Config) string {
			return strconv.FormatFloat(c.Generation.Temperature, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for generation.temperature: %w", err)
			}
			c.Generation.Temperature = f
			return nil
		},
	},
	"generation.max_tokens": {
		get: func(c *Config) string { return uintString(c.Generation.MaxTokens) },
		set: func(c *Config, v string) error {
			return setUint(&c.Generation.MaxTokens, "generation.max_tokens", v)
		},
	},
	"assistant.mode": {
		get: func(c *Config) string { return c.Assistant.Mode },
		set: func(c *Config, v string) error { c.Assistant.Mode = v; return nil },
	},
	"assistant.top_k": {
		get: func(c *Config) string { return uintString(c.Assistant.TopK) },
		set: func(c *Config, v string) error {
			return setUint(&c.Assistant.TopK, "assistant.top_k", v)
		},
	},
	"assistant.max_iterations": {
		get: func(c *Config) string { return uintString(c.Assistant.MaxIterations) },
		set: func(c *Config, v string) error {
			return setUint(&c.Assistant.MaxIterations, "assistant.max_iterations", v)
		},
	},
	"assistant.window": {
		get: func(c *Config) string { return uintString(c.Assistant.Window) },
		set: func(c *Config, v string) error {
			return setUint(&c.Assistant.Window, "assistant.window", v)
		},
	},
	"assistant.token_limit": {
		get: func(c *Config) string { return uintString(c.Assistant.TokenLimit) },
		set: func(c *Config, v string) error {
			return setUint(&c.Assistant.TokenLimit, "assistant.token_limit", v)
		},
	},
	"assistant.greeting": {
		get: func(c *Config) string { return c.Assistant.Greeting },
		set: func(c *Config, v string) error { c.Assistant.Greeting = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.collection": {
		get: func(c *Config) string { return c.VectorStore.Collection },
		set: func(c *Config, v string) error { c.VectorStore.Collection = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string { return uintString(c.Embedding.Dimensions) },
		set: func(c *Config, v string) error {
			return setUint(&c.Embedding.Dimensions, "embedding.dimensions", v)
		},
	},
	"orders.provider": {
		get: func(c *Config) string { return c.Orders.Provider },
		set: func(c *Config, v string) error { c.Orders.Provider = v; return nil },
	},
	"orders.target": {
		get: func(c *Config) string { return c.Orders.Target },
		set: func(c *Config, v string) error { c.Orders.Target = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"eventstream.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.EventStream.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for eventstream.enabled: %w", err)
			}
			c.EventStream.Enabled = b
			return nil
		},
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error {
			if v == "" {
				c.EventStream.Brokers = nil
				return nil
			}
			parts := strings.Split(v, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			c.EventStream.Brokers = parts
			return nil
		},
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}

func uintString(u uint) string {
	if u == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(u), 10)
}

func setUint(target *uint, key, v string) error {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*target = uint(n)
	return nil
}
