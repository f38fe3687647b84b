// Package filesystem finds documents on local disk and watches them for
// changes.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// SupportFunc reports whether a document can be extracted.
type SupportFunc func(domain.Document) bool

// Scan expands roots into documents. Directories are walked recursively,
// skipping hidden entries and files supports rejects. Roots naming a file
// are always included, as are missing roots so they can be reported as
// skipped. Duplicates are dropped and root order is kept.
func Scan(roots []string, supports SupportFunc) ([]domain.Document, error) {
	var docs []domain.Document
	seen := make(map[string]bool)
	add := func(doc domain.Document) {
		if !seen[doc.ID] {
			seen[doc.ID] = true
			docs = append(docs, doc)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				add(domain.NewDocument(root))
				continue
			}
			return nil, fmt.Errorf("root path error: %w", err)
		}
		if !info.IsDir() {
			add(domain.NewDocument(root))
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(root, path)
			if isHidden(rel) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			doc := domain.NewDocument(path)
			if supports == nil || supports(doc) {
				add(doc)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return docs, nil
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
