// Package fallback wraps an embedder so that per-item failures degrade to
// zero vectors instead of aborting a batch.
package fallback

import (
	"context"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Embedder embeds texts one at a time through an inner embedder. Blank
// texts and failed items become zero vectors. Failed items are reported
// to OnFallback and to the FallbackFunc carried by the context (see
// driven.WithFallback). Context cancellation is the only error returned.
type Embedder struct {
	inner driven.Embedder

	// OnFallback, when set, is called for every substituted item.
	OnFallback func(index int, err error)
}

// Wrap returns a zero-fallback embedder around inner.
func Wrap(inner driven.Embedder) *Embedder {
	return &Embedder{inner: inner}
}

// Embed returns exactly one vector of length Dimensions() per text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	dims := e.inner.Dimensions()
	out := make([][]float32, len(texts))

	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			out[i] = domain.ZeroVector(dims)
			continue
		}

		vecs, err := e.inner.Embed(ctx, []string{text})
		if err == nil && (len(vecs) != 1 || len(vecs[0]) != dims) {
			err = domain.ErrDimensionMismatch
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("embedding item %d with %s failed, using zero vector: %v", i, e.inner.ModelName(), err)
			if e.OnFallback != nil {
				e.OnFallback(i, err)
			}
			driven.ReportFallback(ctx, i, err)
			out[i] = domain.ZeroVector(dims)
			continue
		}
		out[i] = vecs[0]
	}
	return out, nil
}

// Dimensions returns the inner embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// ModelName returns the inner embedder's model.
func (e *Embedder) ModelName() string {
	return e.inner.ModelName()
}

// Close closes the inner embedder.
func (e *Embedder) Close() error {
	return e.inner.Close()
}
