package pdf

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner. Outputs are keyed by the
// tool name plus the requested page, if any.
type mockRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	key := name
	if i := slices.Index(args, "-f"); i >= 0 {
		key = fmt.Sprintf("%s:%s", name, args[i+1])
	}
	m.calls = append(m.calls, key)
	if err := m.errs[key]; err != nil {
		return nil, err
	}
	return []byte(m.outputs[key]), nil
}

func foundTools(tools ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		if slices.Contains(tools, name) {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
}

func newTestExtractor(runner *mockRunner, tools ...string) *Extractor {
	e := NewWithRunner(runner)
	e.lookPath = foundTools(tools...)
	return e
}

func collect(t *testing.T, seq func(func(domain.Page, error) bool)) ([]domain.Page, []error) {
	t.Helper()
	var (
		pages []domain.Page
		errs  []error
	)
	for p, err := range seq {
		pages = append(pages, p)
		errs = append(errs, err)
	}
	return pages, errs
}

var doc = domain.NewDocument("/docs/manual.pdf")

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = New()
	assert.Equal(t, []string{".pdf"}, New().Extensions())
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

func TestNewWithRunner(t *testing.T) {
	runner := &mockRunner{}
	e := NewWithRunner(runner)
	require.NotNil(t, e)
	assert.Equal(t, runner, e.runner)
}

func TestExtract_PerPage(t *testing.T) {
	runner := &mockRunner{outputs: map[string]string{
		"pdfinfo":     "Title: Manual\nPages:          3\nEncrypted: no\n",
		"pdftotext:1": "First page.\f",
		"pdftotext:2": "",
		"pdftotext:3": "Third page.\f",
	}}
	e := newTestExtractor(runner, textTool, infoTool)

	seq, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)

	pages, errs := collect(t, seq)
	require.Len(t, pages, 3)
	assert.Equal(t, domain.Page{Number: 1, Text: "First page."}, pages[0])
	assert.Equal(t, domain.Page{Number: 2, Text: ""}, pages[1])
	assert.Equal(t, domain.Page{Number: 3, Text: "Third page."}, pages[2])
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestExtract_PageFailureContinues(t *testing.T) {
	runner := &mockRunner{
		outputs: map[string]string{
			"pdfinfo":     "Pages: 3\n",
			"pdftotext:1": "one",
			"pdftotext:3": "three",
		},
		errs: map[string]error{"pdftotext:2": errors.New("pdftotext crashed")},
	}
	e := newTestExtractor(runner, textTool, infoTool)

	seq, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)

	pages, errs := collect(t, seq)
	require.Len(t, pages, 3)
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[2])
	assert.Equal(t, "three", pages[2].Text)

	require.Error(t, errs[1])
	assert.ErrorIs(t, errs[1], domain.ErrContent)
	assert.Contains(t, errs[1].Error(), "pdftotext failed")

	var ce *domain.ContentError
	require.ErrorAs(t, errs[1], &ce)
	assert.Equal(t, "manual.pdf", ce.Document)
	assert.Equal(t, 2, ce.Page)
}

func TestExtract_IsLazy(t *testing.T) {
	runner := &mockRunner{outputs: map[string]string{"pdfinfo": "Pages: 5\n"}}
	e := newTestExtractor(runner, textTool, infoTool)

	seq, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"pdfinfo"}, runner.calls)

	for p := range seq {
		if p.Number == 2 {
			break
		}
	}
	assert.Equal(t, []string{"pdfinfo", "pdftotext:1", "pdftotext:2"}, runner.calls)
}

func TestExtract_StopsWhenCancelled(t *testing.T) {
	runner := &mockRunner{outputs: map[string]string{"pdfinfo": "Pages: 5\n"}}
	e := newTestExtractor(runner, textTool, infoTool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seq, err := e.Extract(ctx, doc)
	require.NoError(t, err)

	var seen int
	for range seq {
		seen++
		cancel()
	}
	assert.Equal(t, 1, seen)
}

func TestExtract_FallbackWithoutPdfinfo(t *testing.T) {
	runner := &mockRunner{outputs: map[string]string{"pdftotext": "alpha\fbeta\f"}}
	e := newTestExtractor(runner, textTool)

	seq, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)

	pages, _ := collect(t, seq)
	assert.Equal(t, []domain.Page{{Number: 1, Text: "alpha"}, {Number: 2, Text: "beta"}}, pages)
}

func TestExtract_FallbackFailure(t *testing.T) {
	runner := &mockRunner{errs: map[string]error{
		"pdfinfo":   errors.New("damaged"),
		"pdftotext": errors.New("damaged"),
	}}
	e := newTestExtractor(runner, textTool, infoTool)

	seq, err := e.Extract(context.Background(), doc)
	require.Error(t, err)
	assert.Nil(t, seq)
	assert.ErrorIs(t, err, domain.ErrContent)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestExtract_ToolMissing(t *testing.T) {
	runner := &mockRunner{}
	e := newTestExtractor(runner)

	_, err := e.Extract(context.Background(), doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
	assert.ErrorIs(t, err, domain.ErrContent)
	assert.Empty(t, runner.calls)
}

func TestParsePageCount(t *testing.T) {
	n, err := parsePageCount([]byte("Producer: x\nPages: 12\n"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = parsePageCount([]byte("Pages: many\n"))
	assert.Error(t, err)

	_, err = parsePageCount([]byte("Title: nothing\n"))
	assert.Error(t, err)
}

// Integration test - only runs if pdftotext is available.
func TestExtract_Integration(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		t.Skip("pdftotext not available, skipping integration test")
	}

	_, err := New().Extract(context.Background(), domain.NewDocument("/nonexistent/file.pdf"))
	assert.ErrorIs(t, err, domain.ErrContent)
}
