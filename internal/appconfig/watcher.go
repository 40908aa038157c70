package appconfig

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher is a small fsnotify wrapper for reacting to a single file
// changing on disk, such as the config YAML.
type Watcher struct {
	fsw *fsnotify.Watcher

	mu        sync.Mutex
	callbacks []func()
}

// NewWatcher starts an underlying fsnotify watcher with no paths registered.
func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{fsw: fsw}
	go w.loop()
	return w, nil
}

// OnChange registers a callback invoked (from an internal goroutine) on
// every write, create or rename event. Callbacks run synchronously in registration
// order.
func (w *Watcher) OnChange(cb func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Watch adds path to the set of watched files. Safe to call for multiple
// paths on the same Watcher.
func (w *Watcher) Watch(_ context.Context, path string) error {
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			cbs := make([]func(), len(w.callbacks))
			copy(cbs, w.callbacks)
			w.mu.Unlock()
			for _, cb := range cbs {
				cb()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher and releases its file descriptors.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
