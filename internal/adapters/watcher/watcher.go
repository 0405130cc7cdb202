// Package watcher turns filesystem events under the source roots into
// debounced refresh requests. It is a trigger only; all indexing work
// stays in the catalog.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"sessionkeeper/internal/domain"
)

// RefreshFunc is called, already debounced, when a watched source root
// changed on disk.
type RefreshFunc func(source domain.Source)

// Watcher recursively watches source roots and coalesces bursts of
// events into single refresh calls.
type Watcher struct {
	fsw      *fsnotify.Watcher
	refresh  RefreshFunc
	debounce time.Duration

	mu      sync.Mutex
	roots   map[string]domain.Source // root dir -> source tag
	pending map[domain.Source]*time.Timer
}

// New creates a watcher that calls refresh after debounce of quiet time
// per source.
func New(refresh RefreshFunc, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		fsw:      fsw,
		refresh:  refresh,
		debounce: debounce,
		roots:    make(map[string]domain.Source),
		pending:  make(map[domain.Source]*time.Timer),
	}, nil
}

// AddRoot registers a source root and watches its directory tree
// recursively. A missing root is skipped silently; the periodic full
// refresh picks it up if it appears later.
func (w *Watcher) AddRoot(source domain.Source, root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	w.mu.Lock()
	w.roots[root] = source
	w.mu.Unlock()

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				log.Printf("watcher: watch %s: %v", path, err)
			}
		}
		return nil
	})
}

// Run consumes events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.fsw.Close()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// New directories (a fresh project folder, a new dated shard) join
	// the watch set so their files trigger refreshes too.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				log.Printf("watcher: watch %s: %v", event.Name, err)
			}
		}
	}

	source, ok := w.sourceFor(event.Name)
	if !ok {
		return
	}
	w.schedule(source)
}

// sourceFor maps an event path back to the source whose root contains it.
func (w *Watcher) sourceFor(path string) (domain.Source, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for root, source := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return source, true
		}
	}
	return "", false
}

// schedule arms (or re-arms) the per-source debounce timer. Bursts of
// writes collapse into one refresh after the quiet period.
func (w *Watcher) schedule(source domain.Source) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[source]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[source] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, source)
		w.mu.Unlock()
		w.refresh(source)
	})
}
