// Package ollama provides a generation adapter for the Ollama HTTP API.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/retry"
)

// Ensure Generator implements the interfaces.
var (
	_ driven.Generator    = (*Generator)(nil)
	_ driven.ModelCatalog = (*Generator)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3"
	DefaultLLMTimeout = 120 * time.Second

	// maxLineSize bounds one NDJSON line of a streamed response.
	maxLineSize = 1 << 20
)

// errStreamIncomplete is returned when the body ends without done:true.
var errStreamIncomplete = errors.New("ollama: stream ended before completion")

// Config holds configuration for the Ollama generator.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is used when GenerateOptions.Model is empty (default: llama3).
	Model string

	// Timeout bounds a non-streaming request and the wait for the first
	// response header of a streaming one (default: 120s).
	Timeout time.Duration

	// Retry bounds attempts to establish a generation.
	Retry retry.Policy
}

// Generator calls /api/generate and /api/tags.
type Generator struct {
	client       *http.Client
	streamClient *http.Client
	baseURL      string
	model        string
	policy       retry.Policy
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Stream      bool     `json:"stream"`
	Temperature float64  `json:"temperature"`
	Options     *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

// generateResponse is one object of the /api/generate response.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// tagsResponse is the /api/tags response format.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// New creates a new Ollama generator.
func New(cfg Config) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultPolicy()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.Timeout

	return &Generator{
		client:       &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{Transport: transport},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		model:        cfg.Model,
		policy:       cfg.Retry,
	}
}

// Generate returns the whole completion in one response.
func (g *Generator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return retry.Do(ctx, g.policy, "ollama generate", func() (string, error) {
		resp, err := g.post(ctx, g.client, g.request(prompt, opts, false))
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		var genResp generateResponse
		if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if genResp.Error != "" {
			return "", retry.Permanent(fmt.Errorf("ollama error: %s", genResp.Error))
		}
		return genResp.Response, nil
	})
}

// Stream delivers each NDJSON response increment to fn as it arrives.
// Connection failures are retried until the first increment is delivered.
func (g *Generator) Stream(ctx context.Context, prompt string, opts driven.GenerateOptions, fn driven.TokenFunc) error {
	delivered := false
	return retry.Run(ctx, g.policy, "ollama stream", func() error {
		err := g.stream(ctx, g.request(prompt, opts, true), func(token string) error {
			delivered = true
			return fn(token)
		})
		if err != nil && delivered {
			return retry.Permanent(err)
		}
		return err
	})
}

func (g *Generator) stream(ctx context.Context, body generateRequest, fn driven.TokenFunc) error {
	resp, err := g.post(ctx, g.streamClient, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk generateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return retry.Permanent(fmt.Errorf("decode stream line: %w", err))
		}
		if chunk.Error != "" {
			return retry.Permanent(fmt.Errorf("ollama error: %s", chunk.Error))
		}
		if chunk.Response != "" {
			if err := fn(chunk.Response); err != nil {
				return retry.Permanent(err)
			}
		}
		if chunk.Done {
			return nil
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return errStreamIncomplete
}

func (g *Generator) request(prompt string, opts driven.GenerateOptions, stream bool) generateRequest {
	model := opts.Model
	if model == "" {
		model = g.model
	}
	return generateRequest{
		Model:       model,
		Prompt:      prompt,
		Stream:      stream,
		Temperature: opts.Temperature,
		Options: &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			Stop:        opts.StopWords,
		},
	}
}

// post sends a generate request and checks the status. Client errors are
// permanent; server and transport errors are retryable.
func (g *Generator) post(ctx context.Context, client *http.Client, body generateRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusErr := fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, retry.Permanent(statusErr)
		}
		return nil, statusErr
	}
	return resp, nil
}

// ListModels returns the installed model names, sorted.
func (g *Generator) ListModels(ctx context.Context) ([]string, error) {
	return retry.Do(ctx, g.policy, "ollama list models", func() ([]string, error) {
		resp, err := g.tags(ctx)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		var tags tagsResponse
		if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}

		names := make([]string, 0, len(tags.Models))
		for _, m := range tags.Models {
			if m.Name != "" {
				names = append(names, m.Name)
			}
		}
		sort.Strings(names)
		return names, nil
	})
}

// Ping validates the daemon is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (g *Generator) Ping(ctx context.Context) error {
	resp, err := g.tags(ctx)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (g *Generator) tags(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("ollama: failed to create tags request: %w", err))
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: ping failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

// Close releases resources.
func (g *Generator) Close() error {
	g.client.CloseIdleConnections()
	g.streamClient.CloseIdleConnections()
	return nil
}
