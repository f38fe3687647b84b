package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// VectorEntry is one record written to a collection.
type VectorEntry struct {
	ID       string
	Text     string
	Metadata domain.ChunkMetadata
	Vector   []float32
}

// Collection is one index generation: a mapping from chunk id to text,
// metadata and vector.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Dimensions returns the vector length accepted by the collection.
	Dimensions() int

	// Upsert inserts or replaces an entry. Replacing keeps the entry's
	// original insertion position.
	Upsert(ctx context.Context, entry VectorEntry) error

	// Search returns at most k entries ordered by descending cosine
	// similarity. Ties keep insertion order.
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error)

	// Count returns the number of entries.
	Count(ctx context.Context) (int, error)
}

// CollectionStore creates and tracks collections.
type CollectionStore interface {
	// Open returns the named collection, creating it if needed. Opening an
	// existing collection with different dimensions fails with
	// domain.ErrDimensionMismatch.
	Open(ctx context.Context, info domain.CollectionInfo) (Collection, error)

	// OpenExisting returns a stored collection without creating it.
	// Returns domain.ErrNotFound if it does not exist.
	OpenExisting(ctx context.Context, name string) (Collection, error)

	// Get returns stored information for a collection.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, name string) (*domain.CollectionInfo, error)

	// List returns all collections, most recently created first.
	List(ctx context.Context) ([]domain.CollectionInfo, error)

	// Latest returns the most recently completed collection.
	// Returns domain.ErrNotFound if none has completed.
	Latest(ctx context.Context) (*domain.CollectionInfo, error)

	// MarkCompleted records that an ingestion run completed.
	MarkCompleted(ctx context.Context, name string) error

	// Delete removes a collection and its entries.
	Delete(ctx context.Context, name string) error

	// Close releases resources.
	Close() error
}
