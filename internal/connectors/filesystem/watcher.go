// Package filesystem finds PDFs on the local disk: single paths given on the
// command line and drop folders watched for new files.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/readwell/internal/logger"
)

// DefaultSettle is how long a file must go without events before it is emitted.
const DefaultSettle = time.Second

// Watcher reports PDFs that appear in a directory.
type Watcher struct {
	root   string
	settle time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets the quiet period before a new file is emitted.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// New creates a watcher for root. Emitted paths are absolute.
func New(root string, opts ...Option) *Watcher {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	w := &Watcher{root: root, settle: DefaultSettle}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Scan returns the PDFs already in root, sorted by name.
// Hidden files and subdirectories are skipped.
func (w *Watcher) Scan() ([]string, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", w.root, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || isHidden(entry.Name()) || !IsPDF(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(w.root, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Watch emits the path of every PDF created in or moved into root, once
// writes to it have settled. Each path is emitted at most once per call.
// The channel closes when ctx is done or Close is called.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(w.root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.root, err)
	}

	w.mu.Lock()
	w.watcher = fsw
	w.mu.Unlock()

	out := make(chan string)
	go w.loop(ctx, fsw, out)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- string) {
	defer close(out)
	defer fsw.Close()

	pending := make(map[string]time.Time)
	seen := make(map[string]bool)

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if path, ok := w.handleFsEvent(event); ok && !seen[path] {
				pending[path] = time.Now()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher: %v", err)

		case now := <-ticker.C:
			for _, path := range settled(pending, now, w.settle) {
				delete(pending, path)
				seen[path] = true
				select {
				case out <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// settled returns pending paths whose last event is older than quiet, sorted.
func settled(pending map[string]time.Time, now time.Time, quiet time.Duration) []string {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= quiet {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	return ready
}

// handleFsEvent returns the path of a PDF that was created or written.
// Removals, chmods, directories and hidden files are ignored.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if isHidden(filepath.Base(event.Name)) || !IsPDF(event.Name) {
		return "", false
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

// Close stops the active watch, if any.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
