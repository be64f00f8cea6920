// Package loader discovers journal files in the workspace and keeps the
// index covering them even while they are not open in the editor. On
// initialize it walks the workspace root and loads every journal file
// into the store; a file watcher then re-applies files changed outside
// the editor. Editor state always wins over disk state.
package loader

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.lsp.dev/uri"

	"github.com/DisezZ/ledger-ls/store"
	"github.com/DisezZ/ledger-ls/telemetry"
)

// journalExtensions are the file extensions treated as ledger journals.
var journalExtensions = map[string]bool{
	".journal": true,
	".ledger":  true,
	".dat":     true,
}

// Loader scans and watches a workspace root for journal files.
type Loader struct {
	store  *store.Store
	logger *slog.Logger
	stop   chan struct{}
}

// New creates a loader feeding the given store.
func New(st *store.Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		store:  st,
		logger: logger,
	}
}

// LoadRoot walks the workspace root and loads every journal file into
// the store. Hidden directories are skipped. Unreadable files are logged
// and skipped; the walk continues.
func (l *Loader) LoadRoot(ctx context.Context, root string) error {
	timer := telemetry.StartTimer(ctx, "workspace.load")
	defer timer.End()

	loaded := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !journalExtensions[filepath.Ext(path)] {
			return nil
		}
		if l.loadFile(ctx, path) {
			loaded++
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Info("workspace scanned", "root", root, "files", loaded)
	return nil
}

// ReloadURI re-reads a journal file after its editor buffer closed, so
// the on-disk contents keep contributing to the index. Non-file URIs and
// missing files are ignored.
func (l *Loader) ReloadURI(ctx context.Context, docURI uri.URI) {
	path := filenameOf(docURI)
	if path == "" || !journalExtensions[filepath.Ext(path)] {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	l.loadFile(ctx, path)
}

// loadFile reads one journal file into the store. The store refuses the
// load when the editor has the document open.
func (l *Loader) loadFile(ctx context.Context, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("skipping unreadable journal", "path", path, "err", err)
		return false
	}
	l.store.LoadFromDisk(ctx, uri.File(path), string(data))
	return true
}

// Stop terminates the watcher, if running.
func (l *Loader) Stop() {
	if l.stop != nil {
		select {
		case <-l.stop:
		default:
			close(l.stop)
		}
	}
}

func filenameOf(u uri.URI) (path string) {
	defer func() {
		if recover() != nil {
			path = ""
		}
	}()
	return u.Filename()
}
