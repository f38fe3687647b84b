// Package cached adds an in-process, expiring cache in front of an embedder.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// DefaultTTL is how long an embedding stays cached.
const DefaultTTL = time.Hour

// Embedder serves repeated texts from memory. Zero vectors are never
// cached so a recovered provider is asked again.
type Embedder struct {
	inner driven.Embedder
	cache *gocache.Cache
}

// Wrap caches inner's results for ttl.
func Wrap(inner driven.Embedder, ttl time.Duration) *Embedder {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Embedder{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Embed returns cached vectors where available and embeds the rest in a
// single call to the inner embedder.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var (
		missing []string
		slots   []int
	)
	for i, text := range texts {
		if v, ok := e.cache.Get(e.key(text)); ok {
			out[i] = v.([]float32)
			continue
		}
		missing = append(missing, text)
		slots = append(slots, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := e.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missing))
	}

	for j, vec := range vecs {
		out[slots[j]] = vec
		if !domain.IsZeroVector(vec) {
			e.cache.SetDefault(e.key(missing[j]), vec)
		}
	}
	return out, nil
}

// Len returns the number of cached embeddings.
func (e *Embedder) Len() int {
	return e.cache.ItemCount()
}

func (e *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return e.inner.ModelName() + ":" + hex.EncodeToString(sum[:])
}

// Dimensions returns the inner embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// ModelName returns the inner embedder's model.
func (e *Embedder) ModelName() string {
	return e.inner.ModelName()
}

// Close flushes the cache and closes the inner embedder.
func (e *Embedder) Close() error {
	e.cache.Flush()
	return e.inner.Close()
}
