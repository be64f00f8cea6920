package loader

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.lsp.dev/uri"
)

// debounceDelay batches bursts of filesystem events from editors and
// sync tools into a single reload.
const debounceDelay = 100 * time.Millisecond

// Watch starts a recursive watcher on the workspace root. External
// writes re-apply journal files to the index; removals drop their
// contributions. Files the editor has open are left alone: the store
// refuses disk loads for them and the server owns their lifecycle.
func (l *Loader) Watch(ctx context.Context, root string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch every directory under the root; fsnotify does not recurse.
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		if name := d.Name(); len(name) > 1 && name[0] == '.' && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		_ = watcher.Close()
		return err
	}

	l.stop = make(chan struct{})
	go l.runWatcher(ctx, watcher)
	return nil
}

// runWatcher processes filesystem events with debouncing.
func (l *Loader) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() { _ = watcher.Close() }()

	var mu sync.Mutex
	changed := make(map[string]fsnotify.Op)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	flush := func() {
		mu.Lock()
		batch := changed
		changed = make(map[string]fsnotify.Op)
		mu.Unlock()

		for path, op := range batch {
			l.handleChange(ctx, path, op)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// New directories need to be added to the watch list.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
					continue
				}
			}

			if !journalExtensions[filepath.Ext(event.Name)] {
				continue
			}
			// Remove/Rename matter too: atomic saves show up as them.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			changed[event.Name] |= event.Op
			mu.Unlock()

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, flush)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("watcher error", "err", err)
		}
	}
}

// handleChange applies one settled filesystem change to the store.
func (l *Loader) handleChange(ctx context.Context, path string, op fsnotify.Op) {
	docURI := uri.File(path)
	if l.store.IsOpen(docURI) {
		return
	}

	if _, err := os.Stat(path); err != nil {
		// Gone from disk: drop its contributions if we were tracking it.
		if op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			_ = l.store.Close(ctx, docURI)
		}
		return
	}

	l.logger.Debug("reloading changed journal", "path", path)
	l.loadFile(ctx, path)
}
