// Package store owns the authoritative text, version, and most recent
// parsed snapshot of every tracked document, and keeps the shared
// workspace index consistent with them. Mutations for one document are
// serialized on a per-document lock so change notifications apply in
// strictly increasing version order; different documents mutate
// concurrently.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.lsp.dev/uri"

	"github.com/DisezZ/ledger-ls/index"
	"github.com/DisezZ/ledger-ls/journal"
	"github.com/DisezZ/ledger-ls/telemetry"
)

var (
	// ErrStaleVersion is returned for a change notification whose version
	// is not strictly greater than the document's current version. The
	// message is dropped without touching the index; it guards against
	// out-of-order delivery.
	ErrStaleVersion = errors.New("stale document version")

	// ErrUnknownDocument is returned for requests against a URI that is
	// not tracked.
	ErrUnknownDocument = errors.New("unknown document")
)

// Store tracks documents and applies their snapshot deltas to the
// workspace index.
type Store struct {
	mu        sync.Mutex
	documents map[uri.URI]*document
	workspace *index.Workspace
	logger    *slog.Logger
}

type document struct {
	mu       sync.Mutex
	text     string
	version  int32
	snapshot *journal.Journal
	open     bool // open in the editor, as opposed to loaded from disk
}

// New creates a store that feeds the given workspace index.
func New(workspace *index.Workspace, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		documents: make(map[uri.URI]*document),
		workspace: workspace,
		logger:    logger,
	}
}

// Open tracks a document opened in the editor and indexes its contents.
// Opening a URI that was loaded from disk supersedes the disk copy.
func (s *Store) Open(ctx context.Context, docURI uri.URI, version int32, text string) {
	s.apply(ctx, docURI, version, text, true)
}

// LoadFromDisk tracks a document discovered by the workspace scanner. It
// never displaces a document the editor has open: editor state wins.
func (s *Store) LoadFromDisk(ctx context.Context, docURI uri.URI, text string) {
	s.mu.Lock()
	if doc, ok := s.documents[docURI]; ok && doc.open {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.apply(ctx, docURI, 0, text, false)
}

// Change applies an editor change notification with full replacement
// text. Versions must be strictly increasing per document.
func (s *Store) Change(ctx context.Context, docURI uri.URI, version int32, text string) error {
	doc := s.lookup(docURI)
	if doc == nil {
		return ErrUnknownDocument
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	if version <= doc.version {
		return ErrStaleVersion
	}

	old := doc.snapshot
	snapshot := journal.Parse(ctx, []byte(text))
	if err := s.workspace.Apply(ctx, index.Source(docURI), old, snapshot); err != nil {
		return err
	}

	doc.text = text
	doc.version = version
	doc.snapshot = snapshot
	return nil
}

// Close removes a document and its index contributions.
func (s *Store) Close(ctx context.Context, docURI uri.URI) error {
	s.mu.Lock()
	doc, ok := s.documents[docURI]
	if ok {
		delete(s.documents, docURI)
	}
	s.mu.Unlock()

	if !ok {
		return ErrUnknownDocument
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()
	return s.workspace.Apply(ctx, index.Source(docURI), doc.snapshot, nil)
}

// Snapshot returns the most recent successfully parsed snapshot of the
// document. Hook for diagnostics and other structural features.
func (s *Store) Snapshot(docURI uri.URI) (*journal.Journal, bool) {
	doc := s.lookup(docURI)
	if doc == nil {
		return nil, false
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return doc.snapshot, true
}

// Text returns the authoritative text and version of the document.
func (s *Store) Text(docURI uri.URI) (string, int32, bool) {
	doc := s.lookup(docURI)
	if doc == nil {
		return "", 0, false
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return doc.text, doc.version, true
}

// IsOpen reports whether the editor currently has the document open.
func (s *Store) IsOpen(docURI uri.URI) bool {
	doc := s.lookup(docURI)
	if doc == nil {
		return false
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return doc.open
}

// URIs returns every tracked document URI.
func (s *Store) URIs() []uri.URI {
	s.mu.Lock()
	defer s.mu.Unlock()
	uris := make([]uri.URI, 0, len(s.documents))
	for u := range s.documents {
		uris = append(uris, u)
	}
	return uris
}

// apply replaces a document's text and snapshot and swaps its index
// contributions in one delta.
func (s *Store) apply(ctx context.Context, docURI uri.URI, version int32, text string, open bool) {
	timer := telemetry.StartTimer(ctx, "store.apply")
	defer timer.End()

	s.mu.Lock()
	doc, ok := s.documents[docURI]
	if !ok {
		doc = &document{}
		s.documents[docURI] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	defer doc.mu.Unlock()

	old := doc.snapshot
	snapshot := journal.Parse(ctx, []byte(text))
	if err := s.workspace.Apply(ctx, index.Source(docURI), old, snapshot); err != nil {
		s.logger.Error("index delta aborted", "uri", string(docURI), "err", err)
		return
	}

	doc.text = text
	doc.version = version
	doc.snapshot = snapshot
	doc.open = open
}

func (s *Store) lookup(docURI uri.URI) *document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documents[docURI]
}
