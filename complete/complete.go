// Package complete implements context-aware completion over the
// workspace index. Completion is a pure read: it classifies the cursor
// position, extracts the partial token, and ranks candidates from the
// account tree or payee set without mutating anything.
package complete

import (
	"context"
	"strings"

	"go.lsp.dev/uri"

	"github.com/DisezZ/ledger-ls/index"
	"github.com/DisezZ/ledger-ls/store"
)

// Kind discriminates the two candidate variants. The set is closed;
// the rendering boundary handles both exhaustively.
type Kind int

const (
	KindAccount Kind = iota
	KindPayee
)

// Candidate is one completion suggestion. For accounts the insertion
// text is the next hierarchy segment only, so editors offer progressive
// narrowing instead of whole deep paths.
type Candidate struct {
	Label      string
	InsertText string
	Kind       Kind
}

// Engine answers completion requests from the current document text and
// workspace index.
type Engine struct {
	store     *store.Store
	workspace *index.Workspace
}

// NewEngine creates a completion engine over the given store and index.
func NewEngine(st *store.Store, ws *index.Workspace) *Engine {
	return &Engine{store: st, workspace: ws}
}

// Complete returns ranked candidates for the cursor position, given as a
// 0-indexed line and column. Unknown documents and unclassifiable
// positions yield an empty result, never an error; the only error is
// context cancellation, checked before any index work begins.
func (e *Engine) Complete(ctx context.Context, docURI uri.URI, line, col int) ([]Candidate, error) {
	text, _, ok := e.store.Text(docURI)
	if !ok {
		return nil, nil
	}

	lineText, ok := lineAt(text, line)
	if !ok {
		return nil, nil
	}

	kind, partial := classify(lineText, col)
	if kind == noContext {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch kind {
	case accountContext:
		return e.completeAccount(partial), nil
	default:
		return e.completePayee(partial), nil
	}
}

// completeAccount splits the partial path on the hierarchy delimiter. A
// trailing delimiter means all children of the full prefix; otherwise
// the last, incomplete segment filters the children of the completed
// prefix by case-sensitive prefix match.
func (e *Engine) completeAccount(partial string) []Candidate {
	var prefix []string
	last := ""

	if partial != "" {
		parts := strings.Split(partial, ":")
		last = strings.TrimLeft(parts[len(parts)-1], " \t")
		for _, part := range parts[:len(parts)-1] {
			prefix = append(prefix, strings.TrimSpace(part))
		}
	}

	var candidates []Candidate
	for _, segment := range e.workspace.ChildrenOf(prefix) {
		if last != "" && !strings.HasPrefix(segment, last) {
			continue
		}
		candidates = append(candidates, Candidate{
			Label:      segment,
			InsertText: segment,
			Kind:       KindAccount,
		})
	}
	return candidates
}

func (e *Engine) completePayee(partial string) []Candidate {
	payees := e.workspace.QueryPayees(strings.TrimSpace(partial), 0)

	candidates := make([]Candidate, len(payees))
	for i, payee := range payees {
		candidates[i] = Candidate{
			Label:      payee,
			InsertText: payee,
			Kind:       KindPayee,
		}
	}
	return candidates
}
