package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/emr-assistant/pkg/circuitbreaker"
)

func TestOpenRouterClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "http://localhost:3000", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "EMR Assistant", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Drink water."}}]}`))
	}))
	defer srv.Close()

	c := NewOpenRouterClient(OpenRouterConfig{
		APIKey:   "sk-test",
		Endpoint: srv.URL,
		Referer:  "http://localhost:3000",
		Title:    "EMR Assistant",
	})

	out, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Drink water.", out)

	assert.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, chatMessage{Role: "user", Content: "hello"}, got.Messages[0])
}

func TestOpenRouterClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", Endpoint: srv.URL})
	out, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, NoResponse, out)
}

func TestOpenRouterClient_Errors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", Endpoint: srv.URL})
		_, err := c.Complete(context.Background(), "hello")
		assert.ErrorContains(t, err, "status 429")
		assert.ErrorContains(t, err, "rate limited")
	})

	t.Run("bad json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		c := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", Endpoint: srv.URL})
		_, err := c.Complete(context.Background(), "hello")
		assert.ErrorContains(t, err, "failed to decode response")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		c := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", Endpoint: srv.URL, Timeout: 20 * time.Millisecond})
		_, err := c.Complete(context.Background(), "hello")
		assert.ErrorContains(t, err, "failed to send request")
	})

	t.Run("missing key", func(t *testing.T) {
		c := NewOpenRouterClient(OpenRouterConfig{Endpoint: "http://127.0.0.1:0"})
		_, err := c.Complete(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})
}

type stubClient struct {
	calls int
	out   string
	err   error
}

func (s *stubClient) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.out, s.err
}

func TestBreakerClient(t *testing.T) {
	stub := &stubClient{err: errors.New("502")}
	c := NewBreakerClient(stub, circuitbreaker.Settings{Name: "llm", MaxFailures: 2, Timeout: time.Minute})
	ctx := context.Background()

	_, err := c.Complete(ctx, "p")
	assert.Error(t, err)
	_, err = c.Complete(ctx, "p")
	assert.Error(t, err)
	assert.Equal(t, "open", c.State())

	_, err = c.Complete(ctx, "p")
	assert.True(t, circuitbreaker.IsRejected(err))
	assert.Equal(t, 2, stub.calls)
}

func TestBreakerClient_IgnoresMissingKey(t *testing.T) {
	stub := &stubClient{err: ErrMissingAPIKey}
	c := NewBreakerClient(stub, circuitbreaker.Settings{Name: "llm", MaxFailures: 1})

	for i := 0; i < 3; i++ {
		_, err := c.Complete(context.Background(), "p")
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	}
	assert.Equal(t, "closed", c.State())
	assert.Equal(t, 3, stub.calls)
}

func TestBreakerClient_PassesThrough(t *testing.T) {
	stub := &stubClient{out: "ok"}
	c := NewBreakerClient(stub, circuitbreaker.Settings{Name: "llm"})

	out, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
