package server

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"
)

// noopHandler discards server-to-client messages on the test client side.
type noopHandler struct{}

func (noopHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {}

// newClientConn wires a server and a test client together over an
// in-memory pipe and returns the client side.
func newClientConn(t *testing.T, srv *Server) *jsonrpc2.Conn {
	t.Helper()

	clientSide, serverSide := net.Pipe()
	ctx := context.Background()

	serverConn := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(serverSide, jsonrpc2.VSCodeObjectCodec{}),
		newHandler(srv, srv.logger))
	clientConn := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.VSCodeObjectCodec{}),
		noopHandler{})

	t.Cleanup(func() {
		_ = clientConn.Close()
		_ = serverConn.Close()
	})
	return clientConn
}

func TestHandler_Session(t *testing.T) {
	srv := newTestServer()
	client := newClientConn(t, srv)
	ctx := context.Background()

	var initResult protocol.InitializeResult
	err := client.Call(ctx, "initialize", protocol.InitializeParams{}, &initResult)
	assert.NoError(t, err)
	assert.Equal(t, Name, initResult.ServerInfo.Name)

	assert.NoError(t, client.Notify(ctx, "initialized", protocol.InitializedParams{}))

	assert.NoError(t, client.Notify(ctx, "textDocument/didOpen", protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        docURI,
			LanguageID: "ledger",
			Version:    1,
			Text: "2024-01-01 * Corner Store\n" +
				"  Expenses:Food  10 USD\n" +
				"  Assets:Cash\n" +
				"\n" +
				"  Exp",
		},
	}))

	var list protocol.CompletionList
	err = client.Call(ctx, "textDocument/completion", protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
			Position:     protocol.Position{Line: 4, Character: 5},
		},
	}, &list)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Expenses"}, itemLabels(list.Items))

	var shutdownResult interface{}
	assert.NoError(t, client.Call(ctx, "shutdown", nil, &shutdownResult))
}

func TestHandler_UnknownMethod(t *testing.T) {
	srv := newTestServer()
	client := newClientConn(t, srv)

	var result interface{}
	err := client.Call(context.Background(), "textDocument/hover", protocol.CompletionParams{}, &result)
	assert.Error(t, err)

	var rpcErr *jsonrpc2.Error
	assert.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rpcErr.Code)
}

func TestHandler_UnknownNotificationIgnored(t *testing.T) {
	srv := newTestServer()
	client := newClientConn(t, srv)
	ctx := context.Background()

	assert.NoError(t, client.Notify(ctx, "$/setTrace", map[string]string{"value": "off"}))

	// The connection is still serving requests afterwards.
	var initResult protocol.InitializeResult
	assert.NoError(t, client.Call(ctx, "initialize", protocol.InitializeParams{}, &initResult))
}
