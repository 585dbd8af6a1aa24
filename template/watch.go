package template

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch starts a background watcher that evicts cached templates loaded
// from dir whenever a file in it is written, created, removed or
// renamed. The next cache-opted lookup then recompiles from disk. The
// watcher stops when ctx is cancelled.
func (r *Registry) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("template: create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("template: watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				r.invalidate(dir, filepath.Base(ev.Name))
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Watcher errors are transient; on doubt, drop the
				// whole directory from the cache.
				r.invalidate(dir, "")
			}
		}
	}()
	return nil
}
