package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies a model-serving backend.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama daemon reached over HTTP.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOllamaCLI drives the ollama binary as a subprocess.
	AIProviderOllamaCLI AIProvider = "ollama-cli"

	// AIProviderOpenAI is any OpenAI-compatible embeddings endpoint.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOllamaCLI, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local HTTP)"
	case AIProviderOllamaCLI:
		return "Ollama (subprocess)"
	case AIProviderOpenAI:
		return "OpenAI-compatible API"
	default:
		return unknownDescription
	}
}

// StorageBackend selects the vector index implementation.
type StorageBackend string

// Available storage backends.
const (
	StorageSQLite StorageBackend = "sqlite"
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageSQLite || b == StorageMemory
}

// Range is an inclusive numeric bound for a setting.
type Range[T int | float64] struct {
	Min T
	Max T
}

// Contains reports whether v lies within the range.
func (r Range[T]) Contains(v T) bool {
	return v >= r.Min && v <= r.Max
}

// Parameter ranges accepted by Validate.
var (
	ChunkSizeRange    = Range[int]{Min: 100, Max: 10000}
	ChunkOverlapRange = Range[int]{Min: 0, Max: 2000}
	TopKRange         = Range[int]{Min: 1, Max: 20}
	TemperatureRange  = Range[float64]{Min: 0.0, Max: 1.0}
)

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	Provider   AIProvider
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int

	// RequestsPerSecond paces calls to the provider. Zero disables pacing.
	RequestsPerSecond float64

	// CacheTTL is how long cached embeddings live. Zero disables the cache.
	CacheTTL time.Duration
}

// LLMSettings configures the generation provider.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// IngestSettings configures chunking.
type IngestSettings struct {
	ChunkSize    int
	ChunkOverlap int
}

// QuerySettings configures retrieval and generation.
type QuerySettings struct {
	TopK        int
	Temperature float64
}

// RetrySettings configures the shared retry policy of both providers.
type RetrySettings struct {
	MaxAttempts int
	Delay       time.Duration
}

// StorageSettings configures where collections are kept.
type StorageSettings struct {
	Backend StorageBackend
	Path    string
}

// AppSettings holds all user-configurable settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Ingest    IngestSettings
	Query     QuerySettings
	Retry     RetrySettings
	Storage   StorageSettings
	LogFile   string
}

// Default values.
const (
	DefaultOllamaURL      = "http://localhost:11434"
	DefaultEmbeddingModel = "nomic-embed-text"
	DefaultLLMModel       = "llama3"
	DefaultDimensions     = 768
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 100
	DefaultTopK           = 5
	DefaultTemperature    = 0.7
	DefaultMaxAttempts    = 3
	DefaultRetryDelay     = time.Second
	DefaultLLMTimeout     = 120 * time.Second
)

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      DefaultEmbeddingModel,
			BaseURL:    DefaultOllamaURL,
			Dimensions: DefaultDimensions,
			CacheTTL:   time.Hour,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModel,
			BaseURL:  DefaultOllamaURL,
			Timeout:  DefaultLLMTimeout,
		},
		Ingest: IngestSettings{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
		},
		Query: QuerySettings{
			TopK:        DefaultTopK,
			Temperature: DefaultTemperature,
		},
		Retry: RetrySettings{
			MaxAttempts: DefaultMaxAttempts,
			Delay:       DefaultRetryDelay,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
	}
}

// Validate checks every setting against its range.
// All failures wrap ErrConfiguration.
func (s AppSettings) Validate() error {
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", ErrUnsupportedType, s.Embedding.Provider)
	}
	if s.Embedding.Provider == AIProviderOllamaCLI {
		return fmt.Errorf("%w: embedding provider %q", ErrUnsupportedType, s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() || s.LLM.Provider == AIProviderOpenAI {
		return fmt.Errorf("%w: llm provider %q", ErrUnsupportedType, s.LLM.Provider)
	}
	if s.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", ErrInvalidInput)
	}
	if !ChunkSizeRange.Contains(s.Ingest.ChunkSize) {
		return fmt.Errorf("%w: chunk_size %d outside %d-%d",
			ErrInvalidInput, s.Ingest.ChunkSize, ChunkSizeRange.Min, ChunkSizeRange.Max)
	}
	if !ChunkOverlapRange.Contains(s.Ingest.ChunkOverlap) {
		return fmt.Errorf("%w: chunk_overlap %d outside %d-%d",
			ErrInvalidInput, s.Ingest.ChunkOverlap, ChunkOverlapRange.Min, ChunkOverlapRange.Max)
	}
	if s.Ingest.ChunkOverlap >= s.Ingest.ChunkSize {
		return ErrInvalidChunking
	}
	if !TopKRange.Contains(s.Query.TopK) {
		return fmt.Errorf("%w: top_k %d outside %d-%d",
			ErrInvalidInput, s.Query.TopK, TopKRange.Min, TopKRange.Max)
	}
	if !TemperatureRange.Contains(s.Query.Temperature) {
		return fmt.Errorf("%w: temperature %.2f outside %.1f-%.1f",
			ErrInvalidInput, s.Query.Temperature, TemperatureRange.Min, TemperatureRange.Max)
	}
	if s.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry max_attempts must be at least 1", ErrInvalidInput)
	}
	if !s.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: storage backend %q", ErrUnsupportedType, s.Storage.Backend)
	}
	return nil
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// DimensionsFor returns the known dimensions for a model, or fallback.
func DimensionsFor(model string, fallback int) int {
	if d, ok := EmbeddingDimensions()[model]; ok {
		return d
	}
	return fallback
}
