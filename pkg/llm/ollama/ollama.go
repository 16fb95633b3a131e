// Package ollama implements pkg/llm's Client for Ollama's chat API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anycompanyretail/shopbot/pkg/llm"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "llama3.1"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"
)

// Client wraps Ollama's chat API.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config holds configuration for the Ollama client.
type Config struct {
	// BaseURL is the Ollama API URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Model is the model name. Defaults to DefaultModel.
	Model string
}

type request struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  *options  `json:"options,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type options struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  uint    `json:"num_predict,omitempty"`
}

type response struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// NewClient creates a new client for Ollama's chat API.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
	}, nil
}

func (c *Client) Name() string {
	return "ollama"
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
		Model:    c.model,
		Messages: msgs,
		Stream:   false,
	}
	if params.Temperature > 0 || params.MaxTokens > 0 {
		reqBody.Options = &options{
			Temperature: params.Temperature,
			NumPredict:  params.MaxTokens,
		}
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling request: %v", llm.ErrBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", llm.ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")

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
		return "", fmt.Errorf("%w: ollama returned status %d: %s", llm.ErrBackend, resp.StatusCode, string(body))
	}

	var result response
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", llm.ErrBackend, err)
	}

	if result.Message.Content == "" {
		return "", llm.ErrEmptyCompletion
	}

	return result.Message.Content, nil
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var _ llm.Client = (*Client)(nil)
