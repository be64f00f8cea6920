package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"
)

// handler routes JSON-RPC messages to the server. Notifications are
// handled inline so that document mutations keep their arrival order;
// requests run in their own goroutine and can be cancelled with
// $/cancelRequest before they touch the index.
type handler struct {
	srv    *Server
	logger *slog.Logger

	mu      sync.Mutex
	pending map[jsonrpc2.ID]context.CancelFunc
}

func newHandler(srv *Server, logger *slog.Logger) *handler {
	return &handler{
		srv:     srv,
		logger:  logger,
		pending: make(map[jsonrpc2.ID]context.CancelFunc),
	}
}

func (h *handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	h.logger.Debug("message", "method", req.Method, "notif", req.Notif)

	if req.Notif {
		h.notification(ctx, conn, req)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	h.register(req.ID, cancel)

	go func() {
		defer h.unregister(req.ID)

		result, err := h.request(ctx, req)
		if err != nil {
			_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeInternalError,
				Message: err.Error(),
			})
			return
		}
		_ = conn.Reply(ctx, req.ID, result)
	}()
}

func (h *handler) request(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "initialize":
		var params protocol.InitializeParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return h.srv.Initialize(ctx, &params)

	case "shutdown":
		return nil, h.srv.Shutdown(ctx)

	case "textDocument/completion":
		var params protocol.CompletionParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return h.srv.Completion(ctx, &params)

	case "textDocument/prepareRename":
		var params protocol.PrepareRenameParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return h.srv.PrepareRename(ctx, &params)

	case "textDocument/rename":
		var params protocol.RenameParams
		if err := unmarshal(req, &params); err != nil {
			return nil, err
		}
		return h.srv.Rename(ctx, &params)

	default:
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("method not supported: %s", req.Method),
		}
	}
}

func (h *handler) notification(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	var err error

	switch req.Method {
	case "initialized":
		err = h.srv.Initialized(ctx, &protocol.InitializedParams{})

	case "exit":
		err = h.srv.Exit(ctx)
		_ = conn.Close()

	case "textDocument/didOpen":
		var params protocol.DidOpenTextDocumentParams
		if err = unmarshal(req, &params); err == nil {
			err = h.srv.DidOpen(ctx, &params)
		}

	case "textDocument/didChange":
		var params protocol.DidChangeTextDocumentParams
		if err = unmarshal(req, &params); err == nil {
			err = h.srv.DidChange(ctx, &params)
		}

	case "textDocument/didClose":
		var params protocol.DidCloseTextDocumentParams
		if err = unmarshal(req, &params); err == nil {
			err = h.srv.DidClose(ctx, &params)
		}

	case "$/cancelRequest":
		var params struct {
			ID jsonrpc2.ID `json:"id"`
		}
		if err = unmarshal(req, &params); err == nil {
			h.cancel(params.ID)
		}

	default:
		// Unknown notifications are ignored per the protocol.
	}

	if err != nil {
		h.logger.Error("notification failed", "method", req.Method, "err", err)
	}
}

func (h *handler) register(id jsonrpc2.ID, cancel context.CancelFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending[id] = cancel
}

func (h *handler) unregister(id jsonrpc2.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cancel, ok := h.pending[id]; ok {
		cancel()
		delete(h.pending, id)
	}
}

func (h *handler) cancel(id jsonrpc2.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cancel, ok := h.pending[id]; ok {
		cancel()
	}
}

func unmarshal(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return nil
	}
	return json.Unmarshal(*req.Params, v)
}

// RunStdio serves LSP over stdin/stdout until the client disconnects.
func RunStdio(ctx context.Context, srv *Server, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	stream := jsonrpc2.NewBufferedStream(stdrwc{}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, newHandler(srv, logger))

	logger.Info("listening on stdio", "server", Name, "version", Version)

	select {
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	case <-conn.DisconnectNotify():
		return nil
	}
}

// stdrwc adapts stdin/stdout to a single read-write-closer for the
// JSON-RPC stream.
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdrwc) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

var _ io.ReadWriteCloser = stdrwc{}
