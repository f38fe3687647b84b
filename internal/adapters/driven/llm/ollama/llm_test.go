package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/retry"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Retry:   retry.Policy{MaxAttempts: 3, Delay: time.Millisecond},
	})
}

func writeNDJSON(w http.ResponseWriter, parts ...string) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	for _, p := range parts {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: p})
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
	_ = json.NewEncoder(w).Encode(generateResponse{Done: true})
}

func TestNew_Defaults(t *testing.T) {
	g := New(Config{})

	assert.Equal(t, DefaultBaseURL, g.baseURL)
	assert.Equal(t, DefaultLLMModel, g.model)
	assert.Equal(t, DefaultLLMTimeout, g.client.Timeout)
	assert.Equal(t, retry.DefaultPolicy(), g.policy)
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	g := New(Config{BaseURL: "http://host:1234/"})
	assert.Equal(t, "http://host:1234", g.baseURL)
}

func TestGenerate_Success(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral", req.Model)
		assert.Equal(t, "hello", req.Prompt)
		assert.False(t, req.Stream)
		assert.InDelta(t, 0.2, req.Temperature, 1e-9)
		if assert.NotNil(t, req.Options) {
			assert.InDelta(t, 0.2, req.Options.Temperature, 1e-9)
		}

		_ = json.NewEncoder(w).Encode(generateResponse{Response: "world", Done: true})
	})

	out, err := g.Generate(context.Background(), "hello", driven.GenerateOptions{Model: "mistral", Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "world", out)
}

func TestGenerate_DefaultModel(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultLLMModel, req.Model)
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "ok", Done: true})
	})

	_, err := g.Generate(context.Background(), "p", driven.GenerateOptions{})
	require.NoError(t, err)
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "ready", Done: true})
	})

	out, err := g.Generate(context.Background(), "p", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ready", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_ExhaustedIsTransient(t *testing.T) {
	var calls atomic.Int32
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := g.Generate(context.Background(), "p", driven.GenerateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransientProvider)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	})

	_, err := g.Generate(context.Background(), "p", driven.GenerateOptions{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTransientProvider)
	assert.Contains(t, err.Error(), "model not found")
	assert.Equal(t, int32(1), calls.Load())
}

func TestStream_DeliversTokensInOrder(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		writeNDJSON(w, "The", " answer", " is", " 42")
	})

	var tokens []string
	err := g.Stream(context.Background(), "q", driven.GenerateOptions{}, func(tok string) error {
		tokens = append(tokens, tok)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"The", " answer", " is", " 42"}, tokens)
}

func TestStream_SkipsEmptyIncrementsAndBlankLines(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"response":"a","done":false}`)
		fmt.Fprintln(w)
		fmt.Fprintln(w, `{"response":"","done":false}`)
		fmt.Fprintln(w, `{"response":"b","done":true}`)
		fmt.Fprintln(w, `{"response":"ignored","done":false}`)
	})

	var tokens []string
	err := g.Stream(context.Background(), "q", driven.GenerateOptions{}, func(tok string) error {
		tokens = append(tokens, tok)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tokens)
}

func TestStream_RetriesBeforeFirstToken(t *testing.T) {
	var calls atomic.Int32
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		writeNDJSON(w, "ok")
	})

	var got strings.Builder
	err := g.Stream(context.Background(), "q", driven.GenerateOptions{}, func(tok string) error {
		got.WriteString(tok)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got.String())
	assert.Equal(t, int32(2), calls.Load())
}

func TestStream_TruncatedAfterTokensIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprintln(w, `{"response":"partial","done":false}`)
	})

	var tokens []string
	err := g.Stream(context.Background(), "q", driven.GenerateOptions{}, func(tok string) error {
		tokens = append(tokens, tok)
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errStreamIncomplete)
	assert.Equal(t, []string{"partial"}, tokens)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStream_ErrorLine(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"error":"out of memory"}`)
	})

	err := g.Stream(context.Background(), "q", driven.GenerateOptions{}, func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of memory")
}

func TestStream_CallbackErrorStops(t *testing.T) {
	stop := errors.New("stop")
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		writeNDJSON(w, "one", "two", "three")
	})

	var count int
	err := g.Stream(context.Background(), "q", driven.GenerateOptions{}, func(string) error {
		count++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, count)
}

func TestStream_Cancelled(t *testing.T) {
	release := make(chan struct{})
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"first","done":false}`)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	err := g.Stream(ctx, "q", driven.GenerateOptions{}, func(string) error {
		cancel()
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListModels(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, `{"models":[{"name":"mistral:latest"},{"name":""},{"name":"llama3:8b"}]}`)
	})

	models, err := g.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:8b", "mistral:latest"}, models)
}

func TestListModels_Empty(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"models":[]}`)
	})

	models, err := g.ListModels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestPing(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"models":[]}`)
	})
	assert.NoError(t, g.Ping(context.Background()))
}

func TestPing_Unreachable(t *testing.T) {
	g := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	err := g.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama: ping failed")
}

func TestPing_BadStatus(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := g.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestClose(t *testing.T) {
	assert.NoError(t, New(Config{}).Close())
}
