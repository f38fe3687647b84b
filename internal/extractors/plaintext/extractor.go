// Package plaintext extracts pages from plain text files. Form feeds
// separate pages; a file without them is a single page.
package plaintext

import (
	"context"
	"iter"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".txt", ".text", ".log", ".csv", ".tsv", ".rst", ".org", ".json", ".yaml", ".yml", ".toml"}
}

// Extract reads the file and splits it into pages.
func (e *Extractor) Extract(_ context.Context, doc domain.Document) (iter.Seq2[domain.Page, error], error) {
	text, err := ReadText(doc)
	if err != nil {
		return nil, err
	}
	return domain.PageSeq(domain.SplitPages(text)), nil
}

// ReadText reads a document file as UTF-8. Invalid sequences become the
// replacement character. A read failure is a content error for the document.
func ReadText(doc domain.Document) (string, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return "", &domain.ContentError{Document: doc.Name(), Err: err}
	}
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	return strings.TrimPrefix(text, "\ufeff"), nil
}
