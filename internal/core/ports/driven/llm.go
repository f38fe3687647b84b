package driven

import "context"

// TokenFunc receives one streamed text increment. Returning an error
// stops the stream and the error is returned from Stream.
type TokenFunc func(token string) error

// Generator produces text completions from a model-serving daemon.
//
// Implementations include:
//   - Ollama over HTTP (NDJSON streaming)
//   - The ollama binary driven as a subprocess
type Generator interface {
	// Generate returns the whole completion.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Stream delivers the completion incrementally to fn. Increments
	// already delivered are never retracted; a mid-stream failure is
	// returned after them.
	Stream(ctx context.Context, prompt string, opts GenerateOptions, fn TokenFunc) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// Model is the generation model name.
	Model string

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// MaxTokens caps the completion length. Zero leaves it to the model.
	MaxTokens int

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
