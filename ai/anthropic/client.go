// Package anthropic is a Claude Messages API client used as a matcher oracle.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/pixelcheck/ai/openrouter"
	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/internal/httpclient"
	"github.com/teranos/pixelcheck/logger"
)

const (
	// DefaultModel is the default Claude model.
	// Should match am.DefaultAnthropicModel.
	DefaultModel = "claude-3-5-haiku-latest"

	// BaseURL is the Anthropic API endpoint
	BaseURL = "https://api.anthropic.com/v1"

	// APIVersion is the required Anthropic API version header
	APIVersion = "2023-06-01"

	maxRetries = 3
)

// Client represents an Anthropic API client
type Client struct {
	baseURL    string
	httpClient *httpclient.SaferClient
	config     Config
	logger     *zap.SugaredLogger
	retryDelay time.Duration
}

// Config holds Anthropic client configuration
type Config struct {
	APIKey       string
	Model        string
	SystemPrompt string
	Temperature  float64 // 0 = 0.2
	MaxTokens    int     // 0 = 4096
	Logger       *zap.SugaredLogger
}

// NewClient creates a new Anthropic API client
func NewClient(config Config) *Client {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2 // Deterministic default
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}

	return &Client{
		baseURL:    BaseURL,
		httpClient: httpclient.New(120*time.Second, httpclient.Options{}),
		config:     config,
		logger:     logger.OrNop(config.Logger),
		retryDelay: time.Second,
	}
}

// MessagesRequest represents a request to the Anthropic Messages API
type MessagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Message represents a message in the conversation
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// MessagesResponse represents the response from the Messages API
type MessagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// ContentBlock represents a content block in the response
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage represents token usage information
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Text concatenates the text blocks of a response
func (r *MessagesResponse) Text() string {
	var content strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(content.String())
}

// Chat accepts the OpenRouter request shape so providers stay interchangeable
func (c *Client) Chat(ctx context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error) {
	if c.config.APIKey == "" {
		return nil, errors.Wrap(errors.ErrOracleUnavailable, "Anthropic API key not configured")
	}

	temperature := c.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := c.config.MaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	model := c.config.Model
	if req.Model != nil {
		model = *req.Model
	}

	anthropicReq := MessagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      req.SystemPrompt,
		Messages:    []Message{{Role: "user", Content: req.UserPrompt}},
	}

	var resp *MessagesResponse
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * c.retryDelay):
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "Anthropic request cancelled")
			}
		}

		resp, err = c.createMessages(ctx, anthropicReq)
		if err == nil {
			break
		}
		c.logger.Warnw("Anthropic API error",
			"attempt", attempt+1,
			logger.FieldError, err.Error(),
			"model", model,
		)
		if !openrouter.IsRetryableError(err) {
			return nil, errors.Wrap(err, "Anthropic API error")
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Anthropic API error after %d retries", maxRetries)
	}

	c.logger.Debugw("Anthropic response",
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason,
	)

	return &openrouter.ChatResponse{
		Content: resp.Text(),
		Usage: openrouter.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

// Complete implements the matcher oracle
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := openrouter.ChatRequest{SystemPrompt: c.config.SystemPrompt, UserPrompt: prompt}
	if maxTokens > 0 {
		req.MaxTokens = &maxTokens
	}
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *Client) createMessages(ctx context.Context, req MessagesRequest) (*MessagesResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.config.APIKey)
	httpReq.Header.Set("anthropic-version", APIVersion)

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
		return nil, errors.Wrapf(errors.ErrUnauthorized, "Anthropic returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Newf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var messagesResp MessagesResponse
	if err := json.Unmarshal(respBody, &messagesResp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}
	return &messagesResp, nil
}

// IsConfigured returns true if the client has an API key
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// SetHTTPClient overrides the HTTP client for testing
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = httpclient.WrapClient(client)
}
