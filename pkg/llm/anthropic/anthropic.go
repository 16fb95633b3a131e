// Package anthropic implements pkg/llm's Client for Anthropic's Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/anycompanyretail/shopbot/pkg/llm"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "claude-sonnet-4-5"

	// DefaultBaseURL is the default Anthropic API URL.
	DefaultBaseURL = "https://api.anthropic.com"

	// apiVersion is the pinned Messages API version header.
	apiVersion = "2023-06-01"

	defaultMaxTokens = 1024
)

// Client wraps Anthropic's Messages API.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// Config holds configuration for the Anthropic client.
type Config struct {
	// BaseURL overrides the API URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Model is the model name. Defaults to DefaultModel.
	Model string

	// APIKey is the API key. Falls back to ANTHROPIC_API_KEY.
	APIKey string
}

type request struct {
	Model       string    `json:"model"`
	MaxTokens   uint      `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient creates a new client for Anthropic's Messages API.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: no API key provided and ANTHROPIC_API_KEY not set")
	}

	return &Client{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

func (c *Client) Name() string {
	return "anthropic"
}

// Complete sends a single-prompt request and returns the generated text.
func (c *Client) Complete(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	return c.send(ctx, request{
		Model:    c.model,
		Messages: []message{{Role: "user", Content: prompt}},
	}, params)
}

// Chat sends a multi-message conversation and returns the generated reply.
// A leading system message is lifted into the Messages API system field.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, params llm.GenerationParams) (string, error) {
	req := request{Model: c.model}

	for _, m := range messages {
		if m.Role == llm.RoleSystem && req.System == "" && len(req.Messages) == 0 {
			req.System = m.Content
			continue
		}
		req.Messages = append(req.Messages, message{Role: string(m.Role), Content: m.Content})
	}

	return c.send(ctx, req, params)
}

func (c *Client) send(ctx context.Context, reqBody request, params llm.GenerationParams) (string, error) {
	reqBody.MaxTokens = defaultMaxTokens
	if params.MaxTokens > 0 {
		reqBody.MaxTokens = params.MaxTokens
	}
	if params.Temperature > 0 {
		reqBody.Temperature = &params.Temperature
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling request: %v", llm.ErrBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", llm.ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending request: %v", llm.ErrBackend, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", llm.ErrBackend, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: anthropic returned status %d: %s", llm.ErrBackend, resp.StatusCode, string(body))
	}

	var result response
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", llm.ErrBackend, err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("%w: anthropic error: %s", llm.ErrBackend, result.Error.Message)
	}

	if len(result.Content) == 0 {
		return "", llm.ErrEmptyCompletion
	}

	return result.Content[0].Text, nil
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var _ llm.Client = (*Client)(nil)
