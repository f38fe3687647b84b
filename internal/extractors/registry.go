package extractors

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sort"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/extractors/docx"
	"github.com/custodia-labs/ragdesk/internal/extractors/html"
	"github.com/custodia-labs/ragdesk/internal/extractors/markdown"
	"github.com/custodia-labs/ragdesk/internal/extractors/pdf"
	"github.com/custodia-labs/ragdesk/internal/extractors/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.Extractor = (*Registry)(nil)

// Registry dispatches extraction by file extension. A later registration
// for the same extension replaces the earlier one.
type Registry struct {
	byExt map[string]driven.Extractor
}

// NewRegistry creates a registry from the given extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byExt: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Default returns a registry with every built-in extractor.
func Default() *Registry {
	return NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
		pdf.New(),
	)
}

// Register adds an extractor for each of its extensions.
func (r *Registry) Register(e driven.Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[ext] = e
	}
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a document's extension is registered.
func (r *Registry) Supports(doc domain.Document) bool {
	_, ok := r.byExt[doc.Extension()]
	return ok
}

// Extract delegates to the extractor for the document's extension.
func (r *Registry) Extract(ctx context.Context, doc domain.Document) (iter.Seq2[domain.Page, error], error) {
	e, ok := r.byExt[doc.Extension()]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %v)", domain.ErrUnsupportedType, doc.Extension(), r.Extensions())
	}
	return e.Extract(ctx, doc)
}

// Filter returns the documents the registry can read, in input order.
func (r *Registry) Filter(docs []domain.Document) []domain.Document {
	return slices.DeleteFunc(slices.Clone(docs), func(d domain.Document) bool {
		return !d.HasPages() && !r.Supports(d)
	})
}
