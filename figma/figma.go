// Package figma fetches design documents from the Figma REST API.
package figma

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/pixelcheck/design"
	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/internal/httpclient"
	"github.com/teranos/pixelcheck/logger"
)

// DefaultBaseURL should match am.DefaultFigmaBaseURL
const DefaultBaseURL = "https://api.figma.com/v1"

// maxDocumentBytes caps a single file response
const maxDocumentBytes = 64 << 20

// FileKey extracts the file key from a Figma URL. URLs must contain a
// /file/{key} or /design/{key} segment. A bare key is returned unchanged.
func FileKey(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.NewInvalidRequestError("empty Figma URL")
	}
	if !strings.Contains(raw, "/") {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(errors.ErrInvalidRequest, "invalid Figma URL")
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if (segments[i] == "file" || segments[i] == "design") && segments[i+1] != "" {
			return segments[i+1], nil
		}
	}
	return "", errors.NewInvalidRequestError("invalid Figma URL format: %s", raw)
}

// Config configures a Client
type Config struct {
	Token   string
	BaseURL string        // "" = DefaultBaseURL
	Timeout time.Duration // 0 = 30s
	Logger  *zap.SugaredLogger
}

// Client fetches design files
type Client struct {
	token      string
	baseURL    string
	httpClient *httpclient.SaferClient
	logger     *zap.SugaredLogger
}

// NewClient creates a Figma client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		token:      strings.TrimSpace(cfg.Token),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpclient.New(cfg.Timeout, httpclient.Options{}),
		logger:     logger.OrNop(cfg.Logger),
	}
}

// FetchRaw returns the raw JSON of file key
func (c *Client) FetchRaw(ctx context.Context, key string) ([]byte, error) {
	if c.token == "" {
		return nil, errors.WithHint(errors.New("Figma token not configured"),
			"set figma.token in am.toml or PIXELCHECK_FIGMA_TOKEN")
	}
	if key == "" || strings.ContainsAny(key, "/?#") {
		return nil, errors.NewInvalidRequestError("invalid Figma file key %q", key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("X-Figma-Token", c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch Figma file %s", key)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read Figma response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrUnauthorized, "Figma returned status %d", resp.StatusCode),
			"check that the token can read this file")
	case http.StatusNotFound:
		return nil, errors.NewNotFoundError("Figma file %s not found", key)
	default:
		return nil, errors.Newf("Figma API error (%d): %s", resp.StatusCode, string(body))
	}

	c.logger.Debugw("Fetched Figma file",
		"file_key", key,
		"bytes", len(body),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return body, nil
}

// FetchDocument fetches and parses file key
func (c *Client) FetchDocument(ctx context.Context, key string) (*design.Document, error) {
	raw, err := c.FetchRaw(ctx, key)
	if err != nil {
		return nil, err
	}
	doc, err := design.ParseDocument(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "Figma file %s", key)
	}
	return doc, nil
}

// FetchURL resolves a Figma URL or key and fetches the document
func (c *Client) FetchURL(ctx context.Context, raw string) (*design.Document, error) {
	key, err := FileKey(raw)
	if err != nil {
		return nil, err
	}
	return c.FetchDocument(ctx, key)
}

// SetHTTPClient overrides the HTTP client for testing
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = httpclient.WrapClient(client)
}
