package driven

import (
	"iter"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Chunker splits page text into overlapping, bounded chunks.
type Chunker interface {
	// Chunks lazily yields the chunks of one page. The sequence is finite
	// and may be ranged over more than once with identical results.
	Chunks(doc domain.Document, page domain.Page) iter.Seq[domain.Chunk]
}

// ChunkerFactory builds a Chunker for a size and overlap. It returns
// domain.ErrInvalidChunking when overlap >= size.
type ChunkerFactory func(size, overlap int) (Chunker, error)
