package extractors

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

type stubExtractor struct {
	exts []string
	text string
}

func (s stubExtractor) Extensions() []string { return s.exts }

func (s stubExtractor) Extract(_ context.Context, _ domain.Document) (iter.Seq2[domain.Page, error], error) {
	return domain.PageSeq([]domain.Page{{Number: 1, Text: s.text}}), nil
}

func TestDefault_Extensions(t *testing.T) {
	exts := Default().Extensions()
	for _, ext := range []string{".txt", ".md", ".html", ".docx", ".pdf"} {
		assert.Contains(t, exts, ext)
	}
	assert.IsIncreasing(t, exts)
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry(stubExtractor{exts: []string{".a"}, text: "from a"}, stubExtractor{exts: []string{".b"}, text: "from b"})

	seq, err := r.Extract(context.Background(), domain.NewDocument("/x/file.B"))
	require.NoError(t, err)
	for p := range seq {
		assert.Equal(t, "from b", p.Text)
	}
}

func TestRegistry_LaterRegistrationWins(t *testing.T) {
	r := NewRegistry(stubExtractor{exts: []string{".a"}, text: "first"})
	r.Register(stubExtractor{exts: []string{".a"}, text: "second"})

	seq, err := r.Extract(context.Background(), domain.NewDocument("f.a"))
	require.NoError(t, err)
	for p := range seq {
		assert.Equal(t, "second", p.Text)
	}
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry(stubExtractor{exts: []string{".a"}})

	_, err := r.Extract(context.Background(), domain.NewDocument("photo.jpg"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), ".jpg")
}

func TestRegistry_Filter(t *testing.T) {
	r := NewRegistry(stubExtractor{exts: []string{".txt"}})
	docs := []domain.Document{
		domain.NewDocument("a.txt"),
		domain.NewDocument("b.jpg"),
		domain.NewTextDocument("inline", "text"),
		domain.NewDocument("c.txt"),
	}

	kept := r.Filter(docs)
	require.Len(t, kept, 3)
	assert.Equal(t, "a.txt", kept[0].ID)
	assert.Equal(t, "inline", kept[1].ID)
	assert.Equal(t, "c.txt", kept[2].ID)
	assert.Len(t, docs, 4)
}

func TestDefault_ReadsPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hello."), 0o600))

	seq, err := Default().Extract(context.Background(), domain.NewDocument(path))
	require.NoError(t, err)

	var texts []string
	for p, err := range seq {
		require.NoError(t, err)
		texts = append(texts, p.Text)
	}
	assert.Equal(t, []string{"Hello."}, texts)
}
