// Package openrouter is an OpenRouter.ai chat client used as a matcher oracle.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/internal/httpclient"
	"github.com/teranos/pixelcheck/internal/util"
	"github.com/teranos/pixelcheck/logger"
)

const (
	// DefaultModel is the fallback model when none is specified.
	// Should match am.DefaultOpenRouterModel.
	DefaultModel = "openai/gpt-4o-mini"
	// DefaultBaseURL is the public API root
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// maxRetries bounds attempts on network errors
	maxRetries = 3
)

// Client is an OpenRouter.ai API client
type Client struct {
	baseURL    string
	httpClient *httpclient.SaferClient
	config     Config
	logger     *zap.SugaredLogger
	// retryDelay is the base back-off between attempts; tests shorten it
	retryDelay time.Duration
}

// Config holds client configuration
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string             // "" = DefaultBaseURL
	SystemPrompt string             // Prepended to every Complete call
	Temperature  *float64           // nil = use default (0.2)
	MaxTokens    *int               // nil = use default (1000)
	Timeout      time.Duration      // 0 = 120s
	Logger       *zap.SugaredLogger // nil = nop logger
}

// NewClient creates an OpenRouter client with defaults applied
func NewClient(config Config) *Client {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Temperature == nil {
		config.Temperature = util.Ptr(0.2)
	}
	if config.MaxTokens == nil {
		config.MaxTokens = util.Ptr(1000)
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpclient.New(config.Timeout, httpclient.Options{}),
		config:     config,
		logger:     logger.OrNop(config.Logger),
		retryDelay: time.Second,
	}
}

// ChatCompletionRequest is the wire request to /chat/completions
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse is the OpenAI-style response body. The local
// provider decodes the same shape.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a completion choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FirstContent returns the trimmed content of the first choice
func (r *ChatCompletionResponse) FirstContent() (string, error) {
	if r == nil || len(r.Choices) == 0 {
		return "", errors.New("no response choices")
	}
	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}

// ChatRequest is a high-level request
type ChatRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  *float64 // Override default temperature
	MaxTokens    *int     // Override default max tokens
	Model        *string  // Override default model
}

// ChatResponse is the high-level response
type ChatResponse struct {
	Content string
	Usage   Usage
}

// CreateChatCompletion sends one request without retries
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	// Shown on the OpenRouter dashboard
	httpReq.Header.Set("X-Title", "pixelcheck")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.Wrapf(errors.ErrUnauthorized, "OpenRouter returned status %d: %s", resp.StatusCode, string(respBody))
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Newf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}
	return &chatResp, nil
}

// Chat sends a request, retrying network failures with linear back-off
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if !c.IsConfigured() {
		return nil, errors.Wrap(errors.ErrOracleUnavailable, "OpenRouter API key not configured")
	}

	temperature := *c.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := *c.config.MaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	model := c.config.Model
	if req.Model != nil {
		model = *req.Model
	}

	messages := []Message{{Role: "user", Content: req.UserPrompt}}
	if req.SystemPrompt != "" {
		messages = append([]Message{{Role: "system", Content: req.SystemPrompt}}, messages...)
	}
	wireReq := ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	c.logger.Debugw("AI chat request",
		"model", model,
		"temperature", temperature,
		"max_tokens", maxTokens,
		"prompt_length", len(req.UserPrompt),
	)

	var resp *ChatCompletionResponse
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.retryDelay
			c.logger.Debugw("Retrying OpenRouter request", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "OpenRouter request cancelled")
			}
		}

		resp, err = c.CreateChatCompletion(ctx, wireReq)
		if err == nil {
			break
		}
		c.logger.Warnw("OpenRouter API error",
			"attempt", attempt+1,
			logger.FieldError, err.Error(),
			"model", model,
		)
		if !IsRetryableError(err) {
			return nil, errors.Wrap(err, "OpenRouter API error")
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "OpenRouter API error after %d attempts", maxRetries)
	}

	content, err := resp.FirstContent()
	if err != nil {
		return nil, errors.Wrap(err, "OpenRouter")
	}
	c.logger.Debugw("OpenRouter response",
		"content_length", len(content),
		"total_tokens", resp.Usage.TotalTokens,
	)
	return &ChatResponse{Content: content, Usage: resp.Usage}, nil
}

// Complete implements the matcher oracle
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := ChatRequest{SystemPrompt: c.config.SystemPrompt, UserPrompt: prompt}
	if maxTokens > 0 {
		req.MaxTokens = &maxTokens
	}
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// IsRetryableError checks if an error is worth retrying (network-related).
// Shared by the other HTTP providers.
func IsRetryableError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection reset by peer",
		"connection refused",
		"timeout",
		"temporary failure",
		"network is unreachable",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// IsConfigured returns true if the client has an API key
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Model returns the configured model
func (c *Client) Model() string {
	return c.config.Model
}

// SetHTTPClient allows overriding the HTTP client for testing.
// Production code should keep the default SSRF-safer client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = httpclient.WrapClient(client)
}
