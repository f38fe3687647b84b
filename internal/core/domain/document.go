package domain

import (
	"iter"
	"path/filepath"
	"strings"
)

// PageBreak separates pages in extracted text.
const PageBreak = '\f'

// Document is a user-selected file and its ordered pages of raw text.
// Documents are immutable once ingestion starts.
type Document struct {
	// ID is the stable identifier, normally the cleaned file path.
	ID string

	// Path is the file location on disk. Empty for inline documents.
	Path string

	// Pages holds pre-extracted text. When empty, pages are read
	// from Path by an Extractor during ingestion.
	Pages []Page
}

// Page is one unit of extracted text. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// NewDocument creates a document for a file on disk.
func NewDocument(path string) Document {
	clean := filepath.Clean(path)
	return Document{ID: clean, Path: clean}
}

// NewTextDocument creates an inline document from page texts.
func NewTextDocument(id string, pages ...string) Document {
	doc := Document{ID: id, Pages: make([]Page, 0, len(pages))}
	for i, text := range pages {
		doc.Pages = append(doc.Pages, Page{Number: i + 1, Text: text})
	}
	return doc
}

// Name returns the human-readable source name used in citations.
func (d Document) Name() string {
	if d.Path != "" {
		return filepath.Base(d.Path)
	}
	return filepath.Base(d.ID)
}

// HasPages reports whether the document carries pre-extracted text.
func (d Document) HasPages() bool {
	return len(d.Pages) > 0
}

// Extension returns the lower-cased file extension including the dot.
func (d Document) Extension() string {
	return strings.ToLower(filepath.Ext(d.Name()))
}

// SplitPages numbers the form-feed separated pages of text from 1. A
// trailing page break does not start an extra page. Blank pages are kept.
func SplitPages(text string) []Page {
	text = strings.TrimSuffix(text, string(PageBreak))
	parts := strings.Split(text, string(PageBreak))
	pages := make([]Page, len(parts))
	for i, p := range parts {
		pages[i] = Page{Number: i + 1, Text: p}
	}
	return pages
}

// PageSeq yields pages in order without errors.
func PageSeq(pages []Page) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		for _, p := range pages {
			if !yield(p, nil) {
				return
			}
		}
	}
}
