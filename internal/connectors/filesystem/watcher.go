package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// ChangeType classifies a file change.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is one file event under a watched root.
type Change struct {
	Type ChangeType
	Path string
}

// ErrWatcherClosed is returned by Watch after Close.
var ErrWatcherClosed = errors.New("watcher closed")

// Watcher reports changes to supported files under a set of roots.
type Watcher struct {
	roots    []string
	supports SupportFunc

	mu     sync.Mutex
	closed bool
	fsw    *fsnotify.Watcher
}

// NewWatcher creates a watcher for roots. Roots may be files or directories.
func NewWatcher(roots []string, supports SupportFunc) *Watcher {
	clean := make([]string, len(roots))
	for i, r := range roots {
		clean[i] = filepath.Clean(r)
	}
	return &Watcher{roots: clean, supports: supports}
}

// Watch starts watching and returns a channel of changes. The channel is
// closed when ctx ends.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrWatcherClosed
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	for _, root := range w.roots {
		if err := w.addRoot(fsw, root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	w.fsw = fsw

	changes := make(chan Change)
	go w.loop(ctx, fsw, changes)
	return changes, nil
}

func (w *Watcher) addRoot(fsw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		// Watch the parent; events are filtered to the file itself.
		return fsw.Add(filepath.Dir(root))
	}
	return w.addTree(fsw, root)
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(dir, path); isHidden(rel) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			logger.Warn("failed to watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, changes chan<- Change) {
	defer close(changes)
	defer fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && w.underDirRoot(ev.Name) {
					_ = w.addTree(fsw, ev.Name)
				}
			}
			change := w.handleFsEvent(ev)
			if change == nil {
				continue
			}
			select {
			case changes <- *change:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// handleFsEvent converts an fsnotify event into a change, or nil when the
// event is irrelevant.
func (w *Watcher) handleFsEvent(ev fsnotify.Event) *Change {
	path := filepath.Clean(ev.Name)
	if !w.covers(path) {
		return nil
	}

	var kind ChangeType
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		kind = ChangeDeleted
	case ev.Has(fsnotify.Create):
		kind = ChangeCreated
	case ev.Has(fsnotify.Write):
		kind = ChangeUpdated
	default:
		return nil
	}

	if kind != ChangeDeleted {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return nil
		}
	}
	if w.supports != nil && !w.isRoot(path) && !w.supports(domain.NewDocument(path)) {
		return nil
	}
	return &Change{Type: kind, Path: path}
}

// covers reports whether path is a file root or a non-hidden path under
// a directory root.
func (w *Watcher) covers(path string) bool {
	return w.isRoot(path) || w.underDirRoot(path)
}

func (w *Watcher) isRoot(path string) bool {
	for _, r := range w.roots {
		if r == path {
			return true
		}
	}
	return false
}

func (w *Watcher) underDirRoot(path string) bool {
	for _, r := range w.roots {
		if info, err := os.Stat(r); err != nil || !info.IsDir() {
			continue
		}
		rel, err := filepath.Rel(r, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if !isHidden(rel) {
			return true
		}
	}
	return false
}

// Close stops the watcher. Close is idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

// Batch groups changes that arrive within quiet of each other. A batch is
// sent once no change has arrived for quiet. The returned channel closes
// after changes closes.
func Batch(ctx context.Context, changes <-chan Change, quiet time.Duration) <-chan []Change {
	out := make(chan []Change)
	go func() {
		defer close(out)

		var (
			pending []Change
			timer   *time.Timer
			fire    <-chan time.Time
		)
		flush := func() bool {
			if len(pending) == 0 {
				return true
			}
			select {
			case out <- pending:
				pending = nil
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-changes:
				if !ok {
					flush()
					return
				}
				pending = append(pending, c)
				if timer == nil {
					timer = time.NewTimer(quiet)
				} else {
					timer.Reset(quiet)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if !flush() {
					return
				}
			}
		}
	}()
	return out
}
