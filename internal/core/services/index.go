package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Index binds one collection generation to the embedder that produced it.
// Callers pass text; vectors are computed internally.
type Index struct {
	collection driven.Collection
	embedder   driven.Embedder
}

// NewIndex returns an index handle. The embedder's dimensions must match
// the collection's.
func NewIndex(collection driven.Collection, embedder driven.Embedder) (*Index, error) {
	if collection.Dimensions() != embedder.Dimensions() {
		return nil, fmt.Errorf("%w: collection %s holds %d, embedder %s produces %d",
			domain.ErrDimensionMismatch, collection.Name(), collection.Dimensions(),
			embedder.ModelName(), embedder.Dimensions())
	}
	return &Index{collection: collection, embedder: embedder}, nil
}

// Name returns the collection name.
func (i *Index) Name() string {
	return i.collection.Name()
}

// Upsert embeds the chunk and inserts or replaces it.
func (i *Index) Upsert(ctx context.Context, chunk domain.Chunk) error {
	vectors, err := i.embedder.Embed(ctx, []string{chunk.Text})
	if err != nil {
		return fmt.Errorf("embed chunk: %w", err)
	}
	if len(vectors) != 1 {
		return fmt.Errorf("embed chunk: got %d vectors for 1 text", len(vectors))
	}

	return i.collection.Upsert(ctx, driven.VectorEntry{
		ID:       chunk.ID,
		Text:     chunk.Text,
		Metadata: chunk.Metadata(),
		Vector:   vectors[0],
	})
}

// Query returns at most k chunks most similar to text.
func (i *Index) Query(ctx context.Context, text string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	vectors, err := i.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors for 1 text", len(vectors))
	}
	return i.collection.Search(ctx, vectors[0], k)
}

// Count returns the number of indexed chunks.
func (i *Index) Count(ctx context.Context) (int, error) {
	return i.collection.Count(ctx)
}
