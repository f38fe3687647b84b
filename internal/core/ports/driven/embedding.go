package driven

import "context"

// Embedder converts text to fixed-length vectors.
//
// Embed returns exactly one vector per input, in input order, each of
// length Dimensions(). Dimensions must not change for the lifetime of
// the embedder.
//
// Implementations include:
//   - Ollama HTTP daemon (nomic-embed-text, all-minilm)
//   - OpenAI-compatible endpoints
//   - Wrappers adding zero-vector fallback or caching
type Embedder interface {
	// Embed generates one vector per text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// FallbackFunc is told about an input whose embedding failed and was
// replaced by a zero vector. index is the position within the Embed call.
type FallbackFunc func(index int, err error)

type fallbackKey struct{}

// WithFallback returns a context that carries fn to embedders that
// substitute zero vectors.
func WithFallback(ctx context.Context, fn FallbackFunc) context.Context {
	return context.WithValue(ctx, fallbackKey{}, fn)
}

// ReportFallback calls the FallbackFunc carried by ctx, if any.
func ReportFallback(ctx context.Context, index int, err error) {
	if fn, ok := ctx.Value(fallbackKey{}).(FallbackFunc); ok && fn != nil {
		fn(index, err)
	}
}
