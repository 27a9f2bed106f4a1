// Package quickml calls a Catalyst QuickML chat endpoint as a matcher oracle.
//
// QuickML takes a single prompt plus system prompt (not a message list) and
// answers either {"response": "..."} or an OpenAI-style choices array.
package quickml

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/internal/httpclient"
	"github.com/teranos/pixelcheck/logger"
)

// DefaultModel is the Qwen model QuickML exposes. Should match am.DefaultQuickMLModel.
const DefaultModel = "crm-di-qwen_text_14b-fp8-it"

// tokenScheme is prepended to bare OAuth tokens
const tokenScheme = "Zoho-oauthtoken "

// Sampling parameters QuickML expects on every request
const (
	defaultTopP        = 0.9
	defaultTopK        = 50
	defaultBestOf      = 1
	defaultTemperature = 0.7
)

// Config holds QuickML client configuration
type Config struct {
	Endpoint     string // Full chat URL, e.g. https://api.catalyst.zoho.in/quickml/v2/project/<id>/llm/chat
	OrgID        string // CATALYST-ORG header
	Token        string // OAuth token, with or without the Zoho-oauthtoken scheme
	Model        string
	SystemPrompt string
	Timeout      time.Duration
	Logger       *zap.SugaredLogger
}

// Client is a QuickML chat client
type Client struct {
	config     Config
	httpClient *httpclient.SaferClient
	logger     *zap.SugaredLogger
}

// Request is the QuickML chat payload
type Request struct {
	Prompt       string  `json:"prompt"`
	Model        string  `json:"model"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	TopP         float64 `json:"top_p"`
	TopK         int     `json:"top_k"`
	BestOf       int     `json:"best_of"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
}

// Response covers both reply shapes QuickML produces
type Response struct {
	Response *string `json:"response,omitempty"`
	Choices  []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices,omitempty"`
}

// Text returns the reply text or an error when neither shape is present
func (r *Response) Text() (string, error) {
	if r.Response != nil {
		return strings.TrimSpace(*r.Response), nil
	}
	if len(r.Choices) > 0 {
		return strings.TrimSpace(r.Choices[0].Message.Content), nil
	}
	return "", errors.New("unexpected response format from QuickML")
}

// NewClient creates a QuickML client
func NewClient(config Config) *Client {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: httpclient.New(config.Timeout, httpclient.Options{}),
		logger:     logger.OrNop(config.Logger),
	}
}

// IsConfigured reports whether endpoint, org and token are all set
func (c *Client) IsConfigured() bool {
	return c.config.Endpoint != "" && c.config.OrgID != "" && c.config.Token != ""
}

// Complete implements the matcher oracle
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if !c.IsConfigured() {
		return "", errors.Wrap(errors.ErrOracleUnavailable, "QuickML endpoint, org_id and token must all be set")
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	body, err := json.Marshal(Request{
		Prompt:       prompt,
		Model:        c.config.Model,
		SystemPrompt: c.config.SystemPrompt,
		TopP:         defaultTopP,
		TopK:         defaultTopK,
		BestOf:       defaultBestOf,
		Temperature:  defaultTemperature,
		MaxTokens:    maxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authorization(c.config.Token))
	req.Header.Set("CATALYST-ORG", c.config.OrgID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "QuickML request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", errors.WithHint(
			errors.Wrapf(errors.ErrUnauthorized, "QuickML returned status %d", resp.StatusCode),
			"OAuth tokens expire after an hour; refresh oracle.quickml.token")
	case resp.StatusCode != http.StatusOK:
		return "", errors.Newf("QuickML LLM API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var parsed Response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal QuickML response")
	}
	text, err := parsed.Text()
	if err != nil {
		return "", err
	}

	c.logger.Debugw("QuickML response",
		"model", c.config.Model,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
		"content_length", len(text),
	)
	return text, nil
}

// SetHTTPClient overrides the HTTP client for testing
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = httpclient.WrapClient(client)
}

func authorization(token string) string {
	token = strings.TrimSpace(token)
	if strings.Contains(token, " ") {
		return token
	}
	return tokenScheme + token
}
