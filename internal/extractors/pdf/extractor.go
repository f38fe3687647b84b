// Package pdf extracts page text from PDF files using the poppler tools.
//
// The page count comes from pdfinfo and each page is read with its own
// pdftotext call, so a page that fails to extract does not lose the rest.
// Without pdfinfo the whole file is read in one call and split on form
// feeds.
package pdf

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"os/exec"
	"strconv"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const (
	textTool = "pdftotext"
	infoTool = "pdfinfo"
)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Extractor handles PDF documents.
type Extractor struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// New creates a PDF extractor that runs the installed poppler tools.
func New() *Extractor {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner, lookPath: exec.LookPath}
}

// CheckAvailable reports whether pdftotext is on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath(textTool); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns how to install pdftotext.
func InstallInstructions() string {
	return `PDF extraction requires pdftotext (poppler).
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract returns the document pages. Pages are read lazily when the page
// count is known.
func (e *Extractor) Extract(ctx context.Context, doc domain.Document) (iter.Seq2[domain.Page, error], error) {
	if _, err := e.lookPath(textTool); err != nil {
		return nil, &domain.ContentError{Document: doc.Name(), Err: ErrPDFToolNotFound}
	}

	count, err := e.pageCount(ctx, doc.Path)
	if err != nil {
		out, err := e.runner.Run(ctx, textTool, "-layout", "-enc", "UTF-8", doc.Path, "-")
		if err != nil {
			return nil, &domain.ContentError{Document: doc.Name(), Err: fmt.Errorf("pdftotext failed: %w", err)}
		}
		return domain.PageSeq(domain.SplitPages(string(out))), nil
	}

	return func(yield func(domain.Page, error) bool) {
		for n := 1; n <= count; n++ {
			if ctx.Err() != nil {
				return
			}
			page := strconv.Itoa(n)
			out, err := e.runner.Run(ctx, textTool, "-layout", "-enc", "UTF-8", "-f", page, "-l", page, doc.Path, "-")
			if err != nil {
				ce := &domain.ContentError{Document: doc.Name(), Page: n, Err: fmt.Errorf("pdftotext failed: %w", err)}
				if !yield(domain.Page{Number: n}, ce) {
					return
				}
				continue
			}
			text := strings.TrimRight(string(out), string(domain.PageBreak))
			if !yield(domain.Page{Number: n, Text: text}, nil) {
				return
			}
		}
	}, nil
}

// pageCount parses the "Pages:" line of pdfinfo.
func (e *Extractor) pageCount(ctx context.Context, path string) (int, error) {
	if _, err := e.lookPath(infoTool); err != nil {
		return 0, err
	}
	out, err := e.runner.Run(ctx, infoTool, path)
	if err != nil {
		return 0, fmt.Errorf("pdfinfo failed: %w", err)
	}
	return parsePageCount(out)
}

func parsePageCount(out []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Pages" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid page count %q", strings.TrimSpace(value))
		}
		return n, nil
	}
	return 0, errors.New("page count not reported")
}
