// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"fmt"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/embedding/fallback"
	ollamaembed "github.com/custodia-labs/ragdesk/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragdesk/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/ragdesk/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/llm/ollamacli"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/retry"
)

// GenerationProvider generates text and lists the models it can serve.
type GenerationProvider interface {
	driven.Generator
	driven.ModelCatalog
}

// EmbedderFactory returns a constructor building an embedder for any model
// with the provider settings of s. Dimensions configured for s.Model are
// not carried over to other models.
func EmbedderFactory(s domain.EmbeddingSettings, policy retry.Policy) func(model string) (driven.Embedder, error) {
	return func(model string) (driven.Embedder, error) {
		settings := s
		if model != "" && model != s.Model {
			settings.Model = model
			settings.Dimensions = 0
		}
		return CreateEmbedder(settings, policy)
	}
}

// CreateEmbedder builds the embedding chain: provider, optional cache, then
// zero-vector fallback.
func CreateEmbedder(settings domain.EmbeddingSettings, policy retry.Policy) (driven.Embedder, error) {
	var base driven.Embedder

	switch settings.Provider {
	case domain.AIProviderOllama:
		base = ollamaembed.New(ollamaembed.Config{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        dimensions(settings, ollamaembed.DefaultDimensions),
			Retry:             policy,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	case domain.AIProviderOpenAI:
		base = openaiembed.New(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions(settings, openaiembed.DefaultDimensions),
			Retry:      policy,
		})

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}

	if settings.CacheTTL > 0 {
		base = cached.Wrap(base, settings.CacheTTL)
	}

	return fallback.Wrap(base), nil
}

// CreateGenerator builds the generation provider.
func CreateGenerator(settings domain.LLMSettings, policy retry.Policy) (GenerationProvider, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.New(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
			Retry:   policy,
		}), nil

	case domain.AIProviderOllamaCLI:
		return ollamacli.New(ollamacli.Config{
			Model: settings.Model,
			Retry: policy,
		}), nil

	default:
		return nil, fmt.Errorf("%w: llm provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

func dimensions(settings domain.EmbeddingSettings, fallback int) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	return domain.DimensionsFor(settings.Model, fallback)
}
