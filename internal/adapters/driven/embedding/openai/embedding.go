// Package openai provides an embedding adapter for OpenAI-compatible APIs,
// including local servers such as LM Studio and llama.cpp.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/retry"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultModel      = string(openai.SmallEmbedding3)
	DefaultTimeout    = 60 * time.Second
	DefaultBatchSize  = 64
	DefaultDimensions = 1536
)

// Config holds configuration for the OpenAI-compatible embedder.
type Config struct {
	// APIKey is sent as a bearer token. Local servers accept any value.
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions is the expected vector size.
	Dimensions int

	// BatchSize is the number of texts per request (default: 64).
	BatchSize int

	// Retry bounds attempts per batch.
	Retry retry.Policy
}

// Embedder generates embeddings through the go-openai client.
type Embedder struct {
	client     *openai.Client
	model      string
	dimensions int
	batchSize  int
	policy     retry.Policy
}

// New creates a new OpenAI-compatible embedder.
func New(cfg Config) *Embedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = domain.DimensionsFor(cfg.Model, DefaultDimensions)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultPolicy()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
		policy:     cfg.Retry,
	}
}

// Embed returns one vector per text. Blank texts get a zero vector and are
// not sent.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var (
		pending []string
		slots   []int
	)
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = domain.ZeroVector(e.dimensions)
			continue
		}
		pending = append(pending, text)
		slots = append(slots, i)
	}

	for start := 0; start < len(pending); start += e.batchSize {
		end := min(start+e.batchSize, len(pending))
		batch := pending[start:end]

		vecs, err := retry.Do(ctx, e.policy, "openai embed", func() ([][]float32, error) {
			return e.embedBatch(ctx, batch)
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		for j, vec := range vecs {
			out[slots[start+j]] = vec
		}
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: batch,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		if isClientError(err) {
			return nil, retry.Permanent(fmt.Errorf("openai embedding failed: %w", err))
		}
		return nil, fmt.Errorf("openai embedding failed: %w", err)
	}
	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(batch))
	}

	vecs := make([][]float32, len(batch))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(batch) {
			return nil, fmt.Errorf("openai returned out of range index %d", data.Index)
		}
		if len(data.Embedding) != e.dimensions {
			return nil, retry.Permanent(fmt.Errorf("%w: model %s returned %d values, want %d",
				domain.ErrDimensionMismatch, e.model, len(data.Embedding), e.dimensions))
		}
		vecs[data.Index] = data.Embedding
	}
	return vecs, nil
}

func isClientError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= 400 && reqErr.HTTPStatusCode < 500 && reqErr.HTTPStatusCode != http.StatusTooManyRequests
	}
	return false
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the name of the embedding model being used.
func (e *Embedder) ModelName() string {
	return e.model
}

// Close releases resources.
func (e *Embedder) Close() error {
	return nil
}
