package server

import (
	"context"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/DisezZ/ledger-ls/journal"
)

// symbolKind discriminates what the cursor points at for rename.
type symbolKind int

const (
	symbolNone symbolKind = iota
	symbolAccount
	symbolPayee
)

// symbolAt locates the account path or payee under the byte offset in
// the document's snapshot. For accounts the symbol is the full exact
// path, not the one segment under the cursor.
func symbolAt(snapshot *journal.Journal, offset int) (symbolKind, string, journal.Span) {
	for _, tx := range snapshot.Transactions {
		if !tx.Span.Contains(offset) {
			continue
		}
		if tx.Payee != "" && tx.PayeeSpan.Contains(offset) {
			return symbolPayee, tx.Payee, tx.PayeeSpan
		}
		for _, posting := range tx.Postings {
			if posting.AccountSpan.Contains(offset) {
				return symbolAccount, posting.AccountPath(), posting.AccountSpan
			}
		}
	}
	return symbolNone, "", journal.Span{}
}

// PrepareRename validates that the cursor is on a renameable symbol and
// returns its range.
func (s *Server) PrepareRename(ctx context.Context, params *protocol.PrepareRenameParams) (*protocol.Range, error) {
	docURI := params.TextDocument.URI

	text, _, ok := s.store.Text(docURI)
	if !ok {
		return nil, nil
	}
	snapshot, ok := s.store.Snapshot(docURI)
	if !ok {
		return nil, nil
	}

	offset := offsetAt(text, int(params.Position.Line), int(params.Position.Character))
	kind, _, span := symbolAt(snapshot, offset)
	if kind == symbolNone {
		return nil, nil
	}

	r := rangeOf(text, span.Start, span.End)
	return &r, nil
}

// Rename replaces every occurrence of the account path or payee under
// the cursor across all tracked documents. Account matches are exact
// full paths; renaming "Expenses:Food" does not touch
// "Expenses:Foodstuff" or the "Expenses:Food:Groceries" subtree.
func (s *Server) Rename(ctx context.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	docURI := params.TextDocument.URI

	text, _, ok := s.store.Text(docURI)
	if !ok {
		return nil, nil
	}
	snapshot, ok := s.store.Snapshot(docURI)
	if !ok {
		return nil, nil
	}

	offset := offsetAt(text, int(params.Position.Line), int(params.Position.Character))
	kind, target, _ := symbolAt(snapshot, offset)
	if kind == symbolNone {
		return nil, nil
	}

	changes := make(map[uri.URI][]protocol.TextEdit)
	for _, u := range s.store.URIs() {
		docText, _, ok := s.store.Text(u)
		if !ok {
			continue
		}
		docSnapshot, ok := s.store.Snapshot(u)
		if !ok {
			continue
		}

		edits := renameEdits(docText, docSnapshot, kind, target, params.NewName)
		if len(edits) > 0 {
			changes[u] = edits
		}
	}

	if len(changes) == 0 {
		return nil, nil
	}
	return &protocol.WorkspaceEdit{Changes: changes}, nil
}

func renameEdits(text string, snapshot *journal.Journal, kind symbolKind, target, newName string) []protocol.TextEdit {
	var edits []protocol.TextEdit
	for _, tx := range snapshot.Transactions {
		if kind == symbolPayee && tx.Payee == target {
			edits = append(edits, protocol.TextEdit{
				Range:   rangeOf(text, tx.PayeeSpan.Start, tx.PayeeSpan.End),
				NewText: newName,
			})
		}
		if kind != symbolAccount {
			continue
		}
		for _, posting := range tx.Postings {
			if posting.AccountPath() == target {
				edits = append(edits, protocol.TextEdit{
					Range:   rangeOf(text, posting.AccountSpan.Start, posting.AccountSpan.End),
					NewText: newName,
				})
			}
		}
	}
	return edits
}
