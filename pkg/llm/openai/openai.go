// Package openai implements pkg/llm's Client for OpenAI's chat completions API.
package openai

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
	DefaultModel = "gpt-4o-mini"

	// DefaultBaseURL is the default OpenAI API URL.
	DefaultBaseURL = "https://api.openai.com"
)

// Client wraps OpenAI's chat completions API.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// Config holds configuration for the OpenAI client.
type Config struct {
	// BaseURL overrides the API URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Model is the model name. Defaults to DefaultModel.
	Model string

	// APIKey is the API key. Falls back to OPENAI_API_KEY.
	APIKey string
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   uint      `json:"max_completion_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient creates a new client for OpenAI's chat completions API.
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
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: no API key provided and OPENAI_API_KEY not set")
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
	return "openai"
}

// Complete sends a single-prompt request and returns the generated text.
func (c *Client) Complete(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	return c.send(ctx, []message{{Role: "user", Content: prompt}}, params)
}

// Chat sends a multi-message conversation and returns the generated reply.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, params llm.GenerationParams) (string, error) {
	msgs := make([]message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, message{Role: string(m.Role), Content: m.Content})
	}
	return c.send(ctx, msgs, params)
}

func (c *Client) send(ctx context.Context, msgs []message, params llm.GenerationParams) (string, error) {
	reqBody := request{
		Model:     c.model,
		Messages:  msgs,
		MaxTokens: params.MaxTokens,
	}
	if params.Temperature > 0 {
		reqBody.Temperature = &params.Temperature
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling request: %v", llm.ErrBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", llm.ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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
		return "", fmt.Errorf("%w: openai returned status %d: %s", llm.ErrBackend, resp.StatusCode, string(body))
	}

	var result response
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", llm.ErrBackend, err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("%w: openai error: %s", llm.ErrBackend, result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", llm.ErrEmptyCompletion
	}

	return result.Choices[0].Message.Content, nil
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var _ llm.Client = (*Client)(nil)
