// Package docx extracts text from Word (.docx) documents. Explicit page
// breaks in the document body start a new page.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// bodyPart is the archive member holding the document body.
const bodyPart = "word/document.xml"

// errNoBody is returned for archives without a document body.
var errNoBody = errors.New("missing " + bodyPart)

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".docx"}
}

// Extract opens the archive and reads the document body.
func (e *Extractor) Extract(_ context.Context, doc domain.Document) (iter.Seq2[domain.Page, error], error) {
	reader, err := zip.OpenReader(doc.Path)
	if err != nil {
		return nil, &domain.ContentError{Document: doc.Name(), Err: err}
	}
	defer reader.Close()

	pages, err := extractPages(&reader.Reader)
	if err != nil {
		return nil, &domain.ContentError{Document: doc.Name(), Err: err}
	}
	return domain.PageSeq(pages), nil
}

// extractPages parses word/document.xml.
func extractPages(reader *zip.Reader) ([]domain.Page, error) {
	for _, file := range reader.File {
		if file.Name != bodyPart {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", bodyPart, err)
		}
		defer rc.Close()

		return parseDocumentXML(rc)
	}
	return nil, errNoBody
}

// parseDocumentXML walks the body tokens. Paragraphs end with a newline,
// tabs become "\t" and <w:br w:type="page"/> closes the current page.
func parseDocumentXML(r io.Reader) ([]domain.Page, error) {
	decoder := xml.NewDecoder(r)

	var (
		pages   []domain.Page
		current strings.Builder
		inText  bool
	)
	flush := func() {
		pages = append(pages, domain.Page{
			Number: len(pages) + 1,
			Text:   strings.TrimSpace(current.String()),
		})
		current.Reset()
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", bodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br":
				if attr(t, "type") == "page" {
					flush()
				} else {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				current.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	flush()
	return pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
