package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/embedding/fallback"
	ollamallm "github.com/custodia-labs/ragdesk/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/llm/ollamacli"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/retry"
)

func TestCreateEmbedder(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.EmbeddingSettings
		wantDims int
		wantErr  error
	}{
		{
			name: "ollama uses known model dimensions",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "all-minilm",
			},
			wantDims: 384,
		},
		{
			name: "explicit dimensions win",
			settings: domain.EmbeddingSettings{
				Provider:   domain.AIProviderOllama,
				Model:      "custom-embed",
				Dimensions: 256,
			},
			wantDims: 256,
		},
		{
			name: "openai with cache",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
				CacheTTL: time.Minute,
			},
			wantDims: 1536,
		},
		{
			name:     "subprocess provider cannot embed",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderOllamaCLI},
			wantErr:  domain.ErrUnsupportedType,
		},
		{
			name:     "unknown provider",
			settings: domain.EmbeddingSettings{Provider: "nope"},
			wantErr:  domain.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb, err := CreateEmbedder(tt.settings, retry.DefaultPolicy())
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, emb)
				return
			}
			require.NoError(t, err)
			defer emb.Close()

			assert.IsType(t, &fallback.Embedder{}, emb)
			assert.Equal(t, tt.wantDims, emb.Dimensions())
			assert.Equal(t, tt.settings.Model, emb.ModelName())
		})
	}
}

func TestCreateGenerator(t *testing.T) {
	gen, err := CreateGenerator(domain.LLMSettings{Provider: domain.AIProviderOllama}, retry.DefaultPolicy())
	require.NoError(t, err)
	assert.IsType(t, &ollamallm.Generator{}, gen)

	gen, err = CreateGenerator(domain.LLMSettings{Provider: domain.AIProviderOllamaCLI}, retry.DefaultPolicy())
	require.NoError(t, err)
	assert.IsType(t, &ollamacli.Generator{}, gen)

	_, err = CreateGenerator(domain.LLMSettings{Provider: domain.AIProviderOpenAI}, retry.DefaultPolicy())
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestEmbedderFactory(t *testing.T) {
	settings := domain.EmbeddingSettings{
		Provider:   domain.AIProviderOllama,
		Model:      "custom-embed",
		Dimensions: 256,
	}
	factory := EmbedderFactory(settings, retry.DefaultPolicy())

	emb, err := factory("")
	require.NoError(t, err)
	assert.Equal(t, "custom-embed", emb.ModelName())
	assert.Equal(t, 256, emb.Dimensions())

	emb, err = factory("mxbai-embed-large")
	require.NoError(t, err)
	assert.Equal(t, "mxbai-embed-large", emb.ModelName())
	assert.Equal(t, 1024, emb.Dimensions())
}
