package quickml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pixelcheck/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(Config{
		Endpoint:     server.URL + "/quickml/v2/project/1/llm/chat",
		OrgID:        "org-1",
		Token:        "1000.abc",
		SystemPrompt: "judge",
	})
	c.SetHTTPClient(server.Client())
	return c
}

func TestComplete_RequestShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Zoho-oauthtoken 1000.abc", r.Header.Get("Authorization"))
		assert.Equal(t, "org-1", r.Header.Get("CATALYST-ORG"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, Request{
			Prompt:       "1. A: x | B: y",
			Model:        DefaultModel,
			SystemPrompt: "judge",
			TopP:         0.9,
			TopK:         50,
			BestOf:       1,
			Temperature:  0.7,
			MaxTokens:    256,
		}, req)

		w.Write([]byte(`{"response": " [true] "}`))
	})

	out, err := c.Complete(context.Background(), "1. A: x | B: y", 256)
	require.NoError(t, err)
	assert.Equal(t, "[true]", out)
}

func TestComplete_ChoicesShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"[false]"}}]}`))
	})

	out, err := c.Complete(context.Background(), "p", 0)
	require.NoError(t, err)
	assert.Equal(t, "[false]", out)
}

func TestComplete_Errors(t *testing.T) {
	t.Run("unknown shape", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		})
		_, err := c.Complete(context.Background(), "p", 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected response format")
	})

	t.Run("expired token", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		_, err := c.Complete(context.Background(), "p", 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrUnauthorized))
		assert.NotEmpty(t, errors.GetAllHints(err))
	})

	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		})
		_, err := c.Complete(context.Background(), "p", 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewClient(Config{Endpoint: "https://example.com"}).Complete(context.Background(), "p", 0)
		assert.True(t, errors.Is(err, errors.ErrOracleUnavailable))
	})
}

func TestAuthorization(t *testing.T) {
	assert.Equal(t, "Zoho-oauthtoken abc", authorization(" abc "))
	assert.Equal(t, "Bearer abc", authorization("Bearer abc"))
}
