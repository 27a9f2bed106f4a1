// Package gemini adapts the Google GenAI SDK to the matcher oracle.
package gemini

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/logger"
)

// DefaultModel should match am.DefaultGeminiModel
const DefaultModel = "gemini-2.0-flash"

// Config holds Gemini client configuration
type Config struct {
	APIKey       string
	Model        string
	SystemPrompt string
	Temperature  float32 // 0 = 0.2
	BaseURL      string  // Overrides the API root, used by tests
	HTTPClient   *http.Client
	Logger       *zap.SugaredLogger
}

// Client generates verdict text with a Gemini model
type Client struct {
	client *genai.Client
	config Config
	logger *zap.SugaredLogger
}

// NewClient creates a Gemini client. The API key is required.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Wrap(errors.ErrOracleUnavailable, "Gemini API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}

	cc := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: config.HTTPClient,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GenAI client")
	}

	return &Client{
		client: client,
		config: config,
		logger: logger.OrNop(config.Logger),
	}, nil
}

// Complete implements the matcher oracle
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	temperature := c.config.Temperature
	gc := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if maxTokens > 0 {
		gc.MaxOutputTokens = int32(maxTokens)
	}
	if c.config.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(c.config.SystemPrompt, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx,
		c.config.Model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		gc,
	)
	if err != nil {
		return "", errors.Wrap(err, "Gemini generate failed")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("Gemini returned no text")
	}
	c.logger.Debugw("Gemini response", "model", c.config.Model, "content_length", len(text))
	return text, nil
}
