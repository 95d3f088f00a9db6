// Package filesystem watches a folder of documents for changes so they can
// be re-ingested as they are edited.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultDebounce is how long a path must stay quiet before its change is
// reported. Editors often write a file several times in a row.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("watcher is closed")

// ChangeType describes what happened to a file.
type ChangeType int

const (
	// ChangeUpserted means the file was created or modified.
	ChangeUpserted ChangeType = iota

	// ChangeDeleted means the file was removed or moved away.
	ChangeDeleted
)

// String returns a short name for the change type.
func (t ChangeType) String() string {
	if t == ChangeDeleted {
		return "deleted"
	}
	return "upserted"
}

// Change is one settled file event.
type Change struct {
	Type ChangeType
	Path string
}

// Watcher reports changes to supported files below a root folder.
type Watcher struct {
	rootPath   string
	extensions map[string]struct{}
	debounce   time.Duration

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for rootPath. Only files whose extension is in
// extensions are reported; an empty list accepts every file.
func New(rootPath string, extensions []string, opts ...Option) *Watcher {
	w := &Watcher{
		rootPath:   rootPath,
		extensions: make(map[string]struct{}, len(extensions)),
		debounce:   DefaultDebounce,
	}
	for _, ext := range extensions {
		w.extensions[strings.ToLower(ext)] = struct{}{}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched folder.
func (w *Watcher) Root() string {
	return w.rootPath
}

// Scan lists the supported files currently below the root, sorted.
func (w *Watcher) Scan(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != w.rootPath && isHidden(w.rel(path)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && w.supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", w.rootPath, err)
	}
	sort.Strings(files)
	return files, nil
}

// Watch starts watching and returns settled changes. The channel is closed
// when ctx is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}

	info, err := os.Stat(w.rootPath)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", w.rootPath)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.addTree(fsw, w.rootPath); err != nil {
		fsw.Close()
		return nil, err
	}
	w.watcher = fsw

	changes := make(chan Change)
	go w.loop(ctx, fsw, changes)
	return changes, nil
}

// loop debounces fsnotify events per path and forwards settled changes.
func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Change) {
	defer close(out)

	pending := make(map[string]Change)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(w.rel(event.Name)) {
					if err := w.addTree(fsw, event.Name); err != nil {
						logger.Warn("Watching %s failed: %v", event.Name, err)
					}
					continue
				}
			}
			change := w.handleFsEvent(event)
			if change == nil {
				continue
			}
			pending[change.Path] = *change
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				select {
				case out <- pending[p]:
				case <-ctx.Done():
					return
				}
				delete(pending, p)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// handleFsEvent converts a raw event into a change, or nil when the event
// is irrelevant (directories, hidden or unsupported files, chmod).
func (w *Watcher) handleFsEvent(event fsnotify.Event) *Change {
	if isHidden(w.rel(event.Name)) || !w.supported(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{Type: ChangeDeleted, Path: event.Name}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		return &Change{Type: ChangeUpserted, Path: event.Name}
	default:
		return nil
	}
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.rootPath && isHidden(w.rel(path)) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) supported(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// rel returns path relative to the root so a hidden root does not hide everything.
func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.rootPath, path)
	if err != nil {
		return path
	}
	return rel
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

// isHidden reports whether any element of path starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
