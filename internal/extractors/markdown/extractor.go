// Package markdown extracts readable text from Markdown files.
package markdown

import (
	"context"
	"iter"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/extractors/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles Markdown documents.
type Extractor struct{}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".md", ".markdown", ".mdown", ".mkd"}
}

// Extract reads the file and strips Markdown syntax from each page.
func (e *Extractor) Extract(_ context.Context, doc domain.Document) (iter.Seq2[domain.Page, error], error) {
	text, err := plaintext.ReadText(doc)
	if err != nil {
		return nil, err
	}
	pages := domain.SplitPages(text)
	for i := range pages {
		pages[i].Text = Strip(pages[i].Text)
	}
	return domain.PageSeq(pages), nil
}

var (
	codeFence     = regexp.MustCompile("(?m)^\\s*(```|~~~).*$\\n?")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	boldStar      = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	italicStar    = regexp.MustCompile(`\*([^*\n]+)\*`)
	underscores   = regexp.MustCompile(`(^|\W)__?([^_\n]+?)__?(\W|$)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s?`)
	horizontal    = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	listMarkers   = regexp.MustCompile(`(?m)^(\s*)[-*+]\s+`)
	numberedList  = regexp.MustCompile(`(?m)^(\s*)\d+[.)]\s+`)
	htmlTags      = regexp.MustCompile(`<[^>]+>`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Strip removes common Markdown formatting. Code block contents and link
// text are kept; sentence punctuation is untouched.
func Strip(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = boldStar.ReplaceAllString(content, "$1")
	content = italicStar.ReplaceAllString(content, "$1")
	content = underscores.ReplaceAllString(content, "$1$2$3")
	content = blockquote.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "$1")
	content = numberedList.ReplaceAllString(content, "$1")
	content = htmlTags.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
