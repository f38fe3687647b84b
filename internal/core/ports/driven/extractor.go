package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Extractor reads page text from a document.
type Extractor interface {
	// Extensions returns the lower-case file extensions handled, with dot.
	Extensions() []string

	// Extract opens the document and returns its pages in natural order.
	// A failure to open the document is returned directly; a failure on a
	// single page is yielded with that page's number and extraction
	// continues with the next page.
	Extract(ctx context.Context, doc domain.Document) (iter.Seq2[domain.Page, error], error)
}

// ExtractorRegistry dispatches documents to the extractor registered for
// their extension.
type ExtractorRegistry interface {
	// Supports reports whether the document can be extracted.
	Supports(doc domain.Document) bool

	// Extract behaves like Extractor.Extract but returns an error wrapping
	// domain.ErrUnsupportedType for unknown extensions.
	Extract(ctx context.Context, doc domain.Document) (iter.Seq2[domain.Page, error], error)
}
