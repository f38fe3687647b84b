package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// CollectionPrefix starts every collection name.
const CollectionPrefix = "ragdesk_"

// CollectionName derives the index name for a document set and embedding
// model. The name depends only on the sorted document names and the model,
// so re-processing the same inputs reuses the same collection.
func CollectionName(docs []Document, embeddingModel string) string {
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name())
	}
	sort.Strings(names)

	sum := sha256.Sum256([]byte(strings.Join(names, ",") + "_" + embeddingModel))
	return CollectionPrefix + hex.EncodeToString(sum[:])[:10]
}

// CollectionInfo describes a stored collection generation.
type CollectionInfo struct {
	Name           string
	EmbeddingModel string
	Dimensions     int
	Documents      []string
	Chunks         int
	CreatedAt      time.Time

	// CompletedAt is zero until an ingestion run finishes without
	// cancellation. Queries are only served from completed collections.
	CompletedAt time.Time
}

// IsCompleted reports whether an ingestion run has completed.
func (c CollectionInfo) IsCompleted() bool {
	return !c.CompletedAt.IsZero()
}

// SearchResult is one entry returned by an index query.
type SearchResult struct {
	ChunkID  string
	Text     string
	Metadata ChunkMetadata
	Score    float64
}
