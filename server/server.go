// Package server exposes the index and completion engine over the
// Language Server Protocol. The transport is JSON-RPC on stdio; handlers
// translate protocol types at the boundary and delegate to the store,
// index, and completion packages.
package server

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/DisezZ/ledger-ls/complete"
	"github.com/DisezZ/ledger-ls/index"
	"github.com/DisezZ/ledger-ls/loader"
	"github.com/DisezZ/ledger-ls/store"
)

// Name and Version identify the server in the initialize handshake.
const (
	Name    = "ledger-ls"
	Version = "0.1.0"
)

// Server holds the shared state behind all LSP handlers. Handlers for
// the same document are applied in arrival order by the transport;
// completion runs concurrently against the read side of the index.
type Server struct {
	workspace *index.Workspace
	store     *store.Store
	engine    *complete.Engine
	loader    *loader.Loader
	logger    *slog.Logger

	rootPath      string
	scanWorkspace bool
	shutdown      atomic.Bool
}

// Option configures the server.
type Option func(*Server)

// WithWorkspaceScan controls whether initialize triggers a scan of the
// workspace root for journal files. Enabled by default.
func WithWorkspaceScan(enabled bool) Option {
	return func(s *Server) {
		s.scanWorkspace = enabled
	}
}

// New creates a server with an empty workspace index.
func New(logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	workspace := index.NewWorkspace(logger)
	st := store.New(workspace, logger)

	s := &Server{
		workspace:     workspace,
		store:         st,
		engine:        complete.NewEngine(st, workspace),
		loader:        loader.New(st, logger),
		logger:        logger,
		scanWorkspace: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the document store; exposed for future features that
// need per-document snapshots.
func (s *Server) Store() *store.Store { return s.store }

// Workspace returns the shared workspace index.
func (s *Server) Workspace() *index.Workspace { return s.workspace }

// Initialize answers the handshake with the server's capabilities:
// full-text document sync, completion triggered on the account hierarchy
// delimiter, and rename with a prepare step.
func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s.rootPath = rootPath(params)

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{":"},
			},
			RenameProvider: protocol.RenameOptions{
				PrepareProvider: true,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    Name,
			Version: Version,
		},
	}, nil
}

// Initialized scans the workspace root for journal files and starts the
// file watcher, so completion covers the whole workspace before any
// document is opened.
func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	if s.rootPath == "" || !s.scanWorkspace {
		return nil
	}

	if err := s.loader.LoadRoot(ctx, s.rootPath); err != nil {
		s.logger.Error("workspace scan failed", "root", s.rootPath, "err", err)
	}
	if err := s.loader.Watch(ctx, s.rootPath); err != nil {
		s.logger.Error("workspace watcher failed", "root", s.rootPath, "err", err)
	}
	return nil
}

// Shutdown marks the server as shutting down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Store(true)
	s.loader.Stop()
	return nil
}

// Exit terminates the watcher. The process exit code is decided by the
// transport loop based on whether Shutdown was requested first.
func (s *Server) Exit(ctx context.Context) error {
	s.loader.Stop()
	return nil
}

// DidOpen tracks a newly opened document and indexes it.
func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	s.logger.Debug("did open", "uri", string(doc.URI), "version", doc.Version)
	s.store.Open(ctx, doc.URI, doc.Version, doc.Text)
	return nil
}

// DidChange applies a full-content change. A stale version is logged and
// dropped without touching the index; an unknown document likewise.
func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}

	docURI := params.TextDocument.URI
	// Full sync: the last change event carries the complete text.
	text := params.ContentChanges[len(params.ContentChanges)-1].Text

	err := s.store.Change(ctx, docURI, params.TextDocument.Version, text)
	switch {
	case errors.Is(err, store.ErrStaleVersion):
		s.logger.Warn("stale change dropped", "uri", string(docURI), "version", params.TextDocument.Version)
	case errors.Is(err, store.ErrUnknownDocument):
		s.logger.Warn("change for unknown document", "uri", string(docURI))
	case err != nil:
		return err
	}
	return nil
}

// DidClose removes the document's index contributions. When the file
// still exists on disk inside the workspace, the loader re-reads it so
// its contents keep contributing to completion.
func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	docURI := params.TextDocument.URI
	if err := s.store.Close(ctx, docURI); err != nil {
		s.logger.Warn("close for unknown document", "uri", string(docURI))
		return nil
	}
	s.loader.ReloadURI(ctx, docURI)
	return nil
}

// Completion classifies the cursor context and returns ranked
// candidates. Unknown documents and unclassifiable positions yield an
// empty list.
func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	candidates, err := s.engine.Complete(ctx,
		params.TextDocument.URI,
		int(params.Position.Line),
		int(params.Position.Character),
	)
	if err != nil {
		return nil, err
	}

	items := make([]protocol.CompletionItem, len(candidates))
	for i, c := range candidates {
		item := protocol.CompletionItem{
			Label:      c.Label,
			InsertText: c.InsertText,
		}
		switch c.Kind {
		case complete.KindAccount:
			item.Kind = protocol.CompletionItemKindModule
			item.Detail = "Account"
		case complete.KindPayee:
			item.Kind = protocol.CompletionItemKindText
			item.Detail = "Payee"
		}
		items[i] = item
	}

	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        items,
	}, nil
}

// rootPath extracts the workspace root from initialize params, filesystem
// paths only.
func rootPath(params *protocol.InitializeParams) string {
	if len(params.WorkspaceFolders) > 0 {
		u := uri.URI(params.WorkspaceFolders[0].URI)
		if path := filenameOf(u); path != "" {
			return path
		}
	}
	if params.RootURI != "" {
		return filenameOf(params.RootURI)
	}
	return params.RootPath
}

// filenameOf converts a file URI to a path, or "" for non-file schemes.
// uri.URI.Filename panics on anything but file URIs.
func filenameOf(u uri.URI) (path string) {
	defer func() {
		if recover() != nil {
			path = ""
		}
	}()
	return u.Filename()
}
