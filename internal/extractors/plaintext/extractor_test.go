package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func writeFile(t *testing.T, name, content string) domain.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return domain.NewDocument(path)
}

func collect(t *testing.T, e *Extractor, doc domain.Document) []domain.Page {
	t.Helper()
	seq, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)

	var pages []domain.Page
	for p, err := range seq {
		require.NoError(t, err)
		pages = append(pages, p)
	}
	return pages
}

func TestExtensions(t *testing.T) {
	exts := New().Extensions()
	assert.Contains(t, exts, ".txt")
	assert.Contains(t, exts, ".csv")
	for _, ext := range exts {
		assert.Equal(t, '.', rune(ext[0]))
	}
}

func TestExtract_SinglePage(t *testing.T) {
	doc := writeFile(t, "notes.txt", "Hello world.\nSecond line.")

	pages := collect(t, New(), doc)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "Hello world.\nSecond line.", pages[0].Text)
}

func TestExtract_FormFeedPages(t *testing.T) {
	doc := writeFile(t, "paged.txt", "page one\fpage two\f\fpage four")

	pages := collect(t, New(), doc)
	require.Len(t, pages, 4)
	assert.Equal(t, "page two", pages[1].Text)
	assert.Empty(t, pages[2].Text)
	assert.Equal(t, 4, pages[3].Number)
}

func TestExtract_EmptyFile(t *testing.T) {
	doc := writeFile(t, "empty.txt", "")

	pages := collect(t, New(), doc)
	require.Len(t, pages, 1)
	assert.Empty(t, pages[0].Text)
}

func TestExtract_InvalidUTF8AndBOM(t *testing.T) {
	doc := writeFile(t, "bad.txt", "\ufeffok \xff\xfe done")

	pages := collect(t, New(), doc)
	require.Len(t, pages, 1)
	assert.Equal(t, "ok \uFFFD done", pages[0].Text)
}

func TestExtract_MissingFile(t *testing.T) {
	doc := domain.NewDocument(filepath.Join(t.TempDir(), "missing.txt"))

	seq, err := New().Extract(context.Background(), doc)
	require.Error(t, err)
	assert.Nil(t, seq)
	assert.ErrorIs(t, err, domain.ErrContent)

	var ce *domain.ContentError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "missing.txt", ce.Document)
}
