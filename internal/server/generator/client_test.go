package generator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/grammarcheck/internal/logging"
)

func newTestClient(t *testing.T, dialect string, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(dialect, Config{
		BaseURL:         srv.URL + "/",
		Model:           "test-model",
		APIKey:          "secret",
		Timeout:         2 * time.Second,
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
	}, logging.Nop{})
	require.NoError(t, err)
	return c, srv
}

func TestGenerate_Gemini(t *testing.T) {
	c, _ := newTestClient(t, "gemini", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "fix me", req.Contents[0].Parts[0].Text)

		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"fixed "},{"text":"text"}]}}]}`)
	})

	out, err := c.Generate(context.Background(), "fix me")
	require.NoError(t, err)
	assert.Equal(t, "fixed text", out)
}

func TestGenerate_Ollama(t *testing.T) {
	c, _ := newTestClient(t, "ollama", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, "user", req.Messages[0].Role)

		_, _ = io.WriteString(w, `{"model":"test-model","message":{"role":"assistant","content":"hi"},"done":true}`)
	})

	out, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, "ollama", func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = io.WriteString(w, `{"message":{"content":"ok"}}`)
		}
	})

	out, err := c.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, "gemini", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "overloaded")
	})

	_, err := c.Generate(context.Background(), "p")
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "overloaded", se.Body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, "gemini", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"API key not valid"}}`)
	})

	_, err := c.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerate_BadPayloadIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, "gemini", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	})

	_, err := c.Generate(context.Background(), "p")
	assert.EqualError(t, err, "gemini: empty response")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerate_ContextCanceled(t *testing.T) {
	c, _ := newTestClient(t, "ollama", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, "p")
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	_, err := New("nope", Config{BaseURL: "http://x"}, logging.Nop{})
	assert.Error(t, err)

	_, err = New("gemini", Config{}, logging.Nop{})
	assert.Error(t, err)

	_, err = NewWithDialect(nil, Config{BaseURL: "http://x"}, logging.Nop{})
	assert.Error(t, err)
}
