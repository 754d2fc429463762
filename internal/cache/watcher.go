package cache

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates cache entries when watched files change on disk.
// It gives callers the "invalidate when you know the file changed" contract
// without them having to poll. Lifecycle is explicit: the owner calls Close.
type Watcher struct {
	fsw    *fsnotify.Watcher
	caches []Cache

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewWatcher creates a watcher that invalidates the given caches
func NewWatcher(caches ...Cache) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		caches: caches,
		done:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Add registers a file or directory to watch
func (w *Watcher) Add(path string) error {
	return w.fsw.Add(path)
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.invalidate(event.Name)
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal: a missed invalidation only extends
			// staleness until the TTL expires.
		}
	}
}

// invalidate drops the entries a changed file can affect. Verifiers key
// per-file state under the file path and aggregate state (the truthpack
// registry) under the owning directory, so a file event must clear both.
func (w *Watcher) invalidate(name string) {
	dir := filepath.Dir(name)
	for _, c := range w.caches {
		_ = c.Invalidate(name)
		if dir != name && dir != "." {
			_ = c.Invalidate(dir)
		}
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	return w.fsw.Close()
}
