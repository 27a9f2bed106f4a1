package provider

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

// LocalConfig configures a local inference server
type LocalConfig struct {
	BaseURL      string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
	Logger       *zap.SugaredLogger
}

// LocalProvider talks to Ollama, LocalAI, or any OpenAI-compatible local endpoint
type LocalProvider struct {
	baseURL    string
	model      string
	system     string
	httpClient *httpclient.SaferClient
	logger     *zap.SugaredLogger
}

// NewLocalProvider creates a provider for local inference.
// Private addresses are allowed since the server is expected on localhost.
func NewLocalProvider(cfg LocalConfig) *LocalProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	allowPrivate := false
	return &LocalProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		system:     cfg.SystemPrompt,
		httpClient: httpclient.New(cfg.Timeout, httpclient.Options{BlockPrivateIP: &allowPrivate}),
		logger:     logger.OrNop(cfg.Logger),
	}
}

// localRequest matches the OpenAI API format (Ollama is compatible)
type localRequest struct {
	Model    string               `json:"model"`
	Messages []openrouter.Message `json:"messages"`
	Stream   bool                 `json:"stream"`
	Options  *completionOpts      `json:"options,omitempty"` // Ollama-specific options
}

type completionOpts struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"num_predict,omitempty"` // Ollama uses num_predict
}

// Complete implements the matcher oracle
func (lp *LocalProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	messages := []openrouter.Message{{Role: "user", Content: prompt}}
	if lp.system != "" {
		messages = append([]openrouter.Message{{Role: "system", Content: lp.system}}, messages...)
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	jsonData, err := json.Marshal(localRequest{
		Model:    lp.model,
		Messages: messages,
		Options:  &completionOpts{Temperature: 0.2, MaxTokens: maxTokens},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}

	// OpenAI-compatible endpoint (works for Ollama, LocalAI, etc.)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lp.baseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := lp.httpClient.Do(req)
	if err != nil {
		return "", errors.WithHint(errors.Wrap(err, "local inference request failed"),
			"is the local server running at oracle.local.base_url?")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", errors.Newf("local inference returned status %d: %s", resp.StatusCode, string(body))
	}

	var completion openrouter.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", errors.Wrap(err, "failed to decode response")
	}
	content, err := completion.FirstContent()
	if err != nil {
		return "", errors.Wrap(err, "local inference")
	}

	lp.logger.Debugw("Local inference response", "model", lp.model, "content_length", len(content))
	return content, nil
}

// SetHTTPClient overrides the HTTP client for testing
func (lp *LocalProvider) SetHTTPClient(client *http.Client) {
	lp.httpClient = httpclient.WrapClient(client)
}
