package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

func newTestStore() *CollectionStore {
	s := NewCollectionStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return s
}

func info(name string, dims int) domain.CollectionInfo {
	return domain.CollectionInfo{Name: name, EmbeddingModel: "m", Dimensions: dims, Documents: []string{"a.txt"}}
}

func vec(id string, v ...float32) driven.VectorEntry {
	return driven.VectorEntry{
		ID:       id,
		Text:     "text " + id,
		Metadata: domain.ChunkMetadata{Source: "a.txt", Page: 1},
		Vector:   v,
	}
}

func TestCollectionStore_OpenGet(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	col, err := s.Open(ctx, info("ragdesk_a", 2))
	require.NoError(t, err)
	assert.Equal(t, "ragdesk_a", col.Name())
	assert.Equal(t, 2, col.Dimensions())

	got, err := s.Get(ctx, "ragdesk_a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, got.Documents)
	assert.False(t, got.IsCompleted())

	_, err = s.Get(ctx, "ragdesk_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollectionStore_OpenExisting(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, err := s.OpenExisting(ctx, "ragdesk_a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Get(ctx, "ragdesk_a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	col, err := s.Open(ctx, info("ragdesk_a", 2))
	require.NoError(t, err)

	existing, err := s.OpenExisting(ctx, "ragdesk_a")
	require.NoError(t, err)
	assert.Same(t, col, existing)
}

func TestCollectionStore_OpenReturnsSameCollection(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	first, err := s.Open(ctx, info("ragdesk_a", 2))
	require.NoError(t, err)
	require.NoError(t, first.Upsert(ctx, vec("c1", 1, 0)))

	second, err := s.Open(ctx, info("ragdesk_a", 2))
	require.NoError(t, err)
	n, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Open(ctx, info("ragdesk_a", 3))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCollectionStore_OpenValidation(t *testing.T) {
	s := newTestStore()
	_, err := s.Open(context.Background(), info("", 2))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = s.Open(context.Background(), info("ragdesk_a", -1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollectionStore_ListLatest(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	for _, name := range []string{"ragdesk_1", "ragdesk_2"} {
		_, err := s.Open(ctx, info(name, 2))
		require.NoError(t, err)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ragdesk_2", list[0].Name)

	_, err = s.Latest(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.MarkCompleted(ctx, "ragdesk_2"))
	require.NoError(t, s.MarkCompleted(ctx, "ragdesk_1"))
	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ragdesk_1", latest.Name)

	assert.ErrorIs(t, s.MarkCompleted(ctx, "ragdesk_missing"), domain.ErrNotFound)
}

func TestCollectionStore_Delete(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, err := s.Open(ctx, info("ragdesk_a", 2))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "ragdesk_a"))

	_, err = s.Get(ctx, "ragdesk_a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "ragdesk_a"), domain.ErrNotFound)
	assert.NoError(t, s.Close())
}

func TestCollection_UpsertIdempotent(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	col, err := s.Open(ctx, info("ragdesk_a", 2))
	require.NoError(t, err)

	for range 3 {
		require.NoError(t, col.Upsert(ctx, vec("c1", 1, 0)))
		require.NoError(t, col.Upsert(ctx, vec("c2", 0, 1)))
	}

	n, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.Get(ctx, "ragdesk_a")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Chunks)
}

func TestCollection_UpsertValidation(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	col, err := s.Open(ctx, info("ragdesk_a", 2))
	require.NoError(t, err)

	assert.ErrorIs(t, col.Upsert(ctx, vec("", 1, 0)), domain.ErrInvalidInput)
	assert.ErrorIs(t, col.Upsert(ctx, vec("c1", 1)), domain.ErrDimensionMismatch)
}

func TestCollection_UpsertCopiesVector(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	col, err := s.Open(ctx, info("ragdesk_a", 2))
	require.NoError(t, err)

	v := []float32{1, 0}
	require.NoError(t, col.Upsert(ctx, driven.VectorEntry{ID: "c1", Vector: v}))
	v[0], v[1] = 0, 1

	results, err := col.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestCollection_SearchOrdering(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	col, err := s.Open(ctx, info("ragdesk_a", 2))
	require.NoError(t, err)

	require.NoError(t, col.Upsert(ctx, vec("east", 1, 0)))
	require.NoError(t, col.Upsert(ctx, vec("north", 0, 1)))
	require.NoError(t, col.Upsert(ctx, vec("tie", 0, 2)))
	require.NoError(t, col.Upsert(ctx, vec("northeast", 1, 1)))

	results, err := col.Search(ctx, []float32{0, 1}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "north", results[0].ChunkID)
	assert.Equal(t, "tie", results[1].ChunkID)
	assert.Equal(t, "northeast", results[2].ChunkID)
	assert.Equal(t, "text north", results[0].Text)
}

func TestCollection_SearchEdgeCases(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	col, err := s.Open(ctx, info("ragdesk_a", 2))
	require.NoError(t, err)

	results, err := col.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = col.Search(ctx, []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Nil(t, results)

	_, err = col.Search(ctx, []float32{1}, 3)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCollection_ConcurrentUpserts(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	col, err := s.Open(ctx, info("ragdesk_a", 2))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, col.Upsert(ctx, vec(fmt.Sprintf("c%d", i%20), 1, float32(i))))
		}(i)
	}
	wg.Wait()

	n, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
