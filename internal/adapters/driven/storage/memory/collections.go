// Package memory provides in-memory implementations of driven ports.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure CollectionStore implements the interface.
var _ driven.CollectionStore = (*CollectionStore)(nil)

// CollectionStore keeps collections in memory. Contents are lost on exit.
type CollectionStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
	now         func() time.Time
}

// NewCollectionStore creates an empty in-memory collection store.
func NewCollectionStore() *CollectionStore {
	return &CollectionStore{
		collections: make(map[string]*collection),
		now:         time.Now,
	}
}

// Open returns the named collection, creating it if needed.
func (s *CollectionStore) Open(_ context.Context, info domain.CollectionInfo) (driven.Collection, error) {
	if info.Name == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	if info.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: collection dimensions must be positive", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[info.Name]; ok {
		if c.dims != info.Dimensions {
			return nil, fmt.Errorf("%w: collection %s has %d dimensions, got %d",
				domain.ErrDimensionMismatch, info.Name, c.dims, info.Dimensions)
		}
		return c, nil
	}

	info.Documents = slices.Clone(info.Documents)
	info.CompletedAt = time.Time{}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = s.now()
	}

	c := &collection{
		name:  info.Name,
		dims:  info.Dimensions,
		info:  info,
		index: make(map[string]int),
	}
	s.collections[info.Name] = c
	return c, nil
}

// OpenExisting returns a stored collection without creating it.
func (s *CollectionStore) OpenExisting(_ context.Context, name string) (driven.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// Get returns stored information for a collection.
func (s *CollectionStore) Get(_ context.Context, name string) (*domain.CollectionInfo, error) {
	s.mu.RLock()
	c, ok := s.collections[name]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	info := c.snapshot()
	return &info, nil
}

// List returns all collections, most recently created first.
func (s *CollectionStore) List(_ context.Context) ([]domain.CollectionInfo, error) {
	infos := s.snapshots()
	slices.SortFunc(infos, func(a, b domain.CollectionInfo) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return infos, nil
}

// Latest returns the most recently completed collection.
func (s *CollectionStore) Latest(_ context.Context) (*domain.CollectionInfo, error) {
	var latest *domain.CollectionInfo
	for _, info := range s.snapshots() {
		if !info.IsCompleted() {
			continue
		}
		if latest == nil || info.CompletedAt.After(latest.CompletedAt) {
			latest = &info
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

// MarkCompleted records that an ingestion run completed.
func (s *CollectionStore) MarkCompleted(_ context.Context, name string) error {
	s.mu.RLock()
	c, ok := s.collections[name]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound
	}

	c.mu.Lock()
	c.info.CompletedAt = s.now()
	c.mu.Unlock()
	return nil
}

// Delete removes a collection and its entries.
func (s *CollectionStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return domain.ErrNotFound
	}
	delete(s.collections, name)
	return nil
}

// Close is a no-op.
func (s *CollectionStore) Close() error {
	return nil
}

func (s *CollectionStore) snapshots() []domain.CollectionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]domain.CollectionInfo, 0, len(s.collections))
	for _, c := range s.collections {
		infos = append(infos, c.snapshot())
	}
	return infos
}

// collection implements driven.Collection. Entries are kept in insertion
// order; index maps an id to its position.
type collection struct {
	name string
	dims int

	mu      sync.RWMutex
	info    domain.CollectionInfo
	entries []driven.VectorEntry
	index   map[string]int
}

func (c *collection) Name() string    { return c.name }
func (c *collection) Dimensions() int { return c.dims }

// Upsert inserts or replaces an entry in place.
func (c *collection) Upsert(_ context.Context, entry driven.VectorEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("%w: entry id is required", domain.ErrInvalidInput)
	}
	if len(entry.Vector) != c.dims {
		return fmt.Errorf("%w: entry %s has %d dimensions, collection %s has %d",
			domain.ErrDimensionMismatch, entry.ID, len(entry.Vector), c.name, c.dims)
	}
	entry.Vector = slices.Clone(entry.Vector)

	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[entry.ID]; ok {
		c.entries[i] = entry
		return nil
	}
	c.index[entry.ID] = len(c.entries)
	c.entries = append(c.entries, entry)
	return nil
}

// Search returns the k most similar entries.
func (c *collection) Search(_ context.Context, query []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(query) != c.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s has %d",
			domain.ErrDimensionMismatch, len(query), c.name, c.dims)
	}

	c.mu.RLock()
	results := make([]domain.SearchResult, len(c.entries))
	for i, e := range c.entries {
		results[i] = domain.SearchResult{
			ChunkID:  e.ID,
			Text:     e.Text,
			Metadata: e.Metadata,
			Score:    domain.CosineSimilarity(query, e.Vector),
		}
	}
	c.mu.RUnlock()

	slices.SortStableFunc(results, func(a, b domain.SearchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of entries.
func (c *collection) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}

func (c *collection) snapshot() domain.CollectionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info := c.info
	info.Documents = slices.Clone(info.Documents)
	info.Chunks = len(c.entries)
	return info
}
