package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message is the provider-agnostic chat message shape shared by the generator
// and the LLM integration.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient is the external turn-generation collaborator. It may fail;
// callers are responsible for degrading gracefully.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// ErrDisabled is returned when no API key is configured. Generation then runs
// in fallback-only mode, which keeps local development key-free.
var ErrDisabled = errors.New("ai: generation disabled (no api key)")

// chatRequest is the minimal request shape for the Chat Completions endpoint.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// chatResponse is the minimal response shape returned by the Chat Completions endpoint.
type chatResponse struct {
	Choices []struct {
		Index   int     `json:"index"`
		Message Message `json:"message"`
	} `json:"choices"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("ai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client is a focused OpenAI-compatible chat completions client.
//
// Spoken replies must stay short, so MaxTokens is the collaborator-side
// response length cap; it is not re-validated downstream.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	MaxTokens   int
	Temperature float64
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient builds a Client. An empty apiKey is allowed; Chat then returns
// ErrDisabled so the caller's fallback path takes over.
func NewClient(apiKey, model string, opts ...Option) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	c := &Client{
		baseURL:     "https://api.openai.com/v1",
		apiKey:      apiKey,
		model:       model,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		MaxTokens:   150,
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.apiKey == "" {
		return "", ErrDisabled
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("ai: marshal request: %w", err)
	}

	url := chatURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return "", fmt.Errorf("ai: request failed: %w", err)
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", errors.New("ai: no choices in response")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
