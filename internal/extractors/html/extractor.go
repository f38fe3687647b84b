// Package html extracts readable text from HTML documents, dropping
// scripts, styles and markup and decoding entities.
package html

import (
	"context"
	"html"
	"iter"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/extractors/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles HTML documents. Each file is one page.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Extract reads the file and strips its markup.
func (e *Extractor) Extract(_ context.Context, doc domain.Document) (iter.Seq2[domain.Page, error], error) {
	text, err := plaintext.ReadText(doc)
	if err != nil {
		return nil, err
	}
	return domain.PageSeq([]domain.Page{{Number: 1, Text: Strip(text)}}), nil
}

type rewrite struct {
	pattern *regexp.Regexp
	with    string
}

// markup is applied in order before entities are decoded.
var markup = []rewrite{
	{regexp.MustCompile(`(?is)<(script|style|noscript|head|svg|template)[^>]*>.*?</(script|style|noscript|head|svg|template)>`), ""},
	{regexp.MustCompile(`(?s)<!--.*?-->`), ""},
	{regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article|header|footer|main|nav)[^>]*>`), "\n"},
	{regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article|header|footer|main|nav)>`), "\n"},
	{regexp.MustCompile(`(?i)<(br|hr)\s*/?>`), "\n"},
	{regexp.MustCompile(`(?i)</t[dh]>`), " "},
	{regexp.MustCompile(`<[^>]+>`), ""},
}

var multiSpaces = regexp.MustCompile(`[ \t\x{00a0}]+`)

// Strip removes markup and returns the readable text, one block per line.
// Blank lines are dropped.
func Strip(content string) string {
	for _, r := range markup {
		content = r.pattern.ReplaceAllString(content, r.with)
	}
	content = multiSpaces.ReplaceAllString(html.UnescapeString(content), " ")

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
