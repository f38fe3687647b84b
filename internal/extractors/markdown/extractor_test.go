package markdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".md", ".markdown", ".mdown", ".mkd"}, New().Extensions())
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "heading", input: "# Title\nBody.", expected: "Title\nBody."},
		{name: "emphasis", input: "Some **bold** and *italic* and __under__.", expected: "Some bold and italic and under."},
		{name: "link", input: "See [the docs](https://example.com).", expected: "See the docs."},
		{name: "image", input: "![diagram](img.png) below", expected: "diagram below"},
		{name: "inline code", input: "Run `go test` now.", expected: "Run go test now."},
		{name: "code fence keeps body", input: "Intro\n```go\nfmt.Println(1)\n```\nOutro", expected: "Intro\nfmt.Println(1)\nOutro"},
		{name: "lists", input: "- one\n* two\n1. three\n2) four", expected: "one\ntwo\nthree\nfour"},
		{name: "blockquote", input: "> quoted text", expected: "quoted text"},
		{name: "horizontal rule", input: "above\n---\nbelow", expected: "above\n\nbelow"},
		{name: "collapse newlines", input: "a\n\n\n\n\nb", expected: "a\n\nb"},
		{name: "snake case kept", input: "call my_func_name here", expected: "call my_func_name here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Strip(tt.input))
		})
	}
}

func TestExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guide.md")
	require.NoError(t, os.WriteFile(path, []byte("# Guide\n\nStep **one**.\fPage *two*."), 0o600))

	seq, err := New().Extract(context.Background(), domain.NewDocument(path))
	require.NoError(t, err)

	var pages []domain.Page
	for p, err := range seq {
		require.NoError(t, err)
		pages = append(pages, p)
	}
	require.Len(t, pages, 2)
	assert.Equal(t, "Guide\n\nStep one.", pages[0].Text)
	assert.Equal(t, domain.Page{Number: 2, Text: "Page two."}, pages[1])
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), domain.NewDocument("/nonexistent/guide.md"))
	assert.ErrorIs(t, err, domain.ErrContent)
}
