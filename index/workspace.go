package index

import (
	"context"
	"log/slog"
	"sync"

	"github.com/DisezZ/ledger-ls/journal"
	"github.com/DisezZ/ledger-ls/telemetry"
)

// Workspace aggregates the snapshots of all open documents into the
// account tree and payee set. It is the one shared mutable resource in
// the server: Apply is the sole writer path and runs under an exclusive
// lock, readers take a shared lock, so a reader observes each delta
// either fully applied or not at all.
type Workspace struct {
	mu       sync.RWMutex
	accounts *AccountTree
	payees   *PayeeSet
	logger   *slog.Logger
}

// NewWorkspace creates an empty workspace index.
func NewWorkspace(logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		accounts: NewAccountTree(),
		payees:   NewPayeeSet(),
		logger:   logger,
	}
}

// Apply replaces one document's contributions: the old snapshot's account
// paths and payees are removed and the new snapshot's are inserted as a
// single atomic step. Either journal may be nil (document just opened, or
// closing). An internal invariant violation aborts the delta and is
// escalated to logs; it signals a defect, not bad input.
func (w *Workspace) Apply(ctx context.Context, src Source, old, new *journal.Journal) error {
	timer := telemetry.StartTimer(ctx, "index.apply")
	defer timer.End()

	w.mu.Lock()
	defer w.mu.Unlock()

	if old != nil {
		for _, tx := range old.Transactions {
			for _, posting := range tx.Postings {
				if err := w.accounts.Remove(posting.Account, src); err != nil {
					w.logger.Error("workspace index corrupt", "source", string(src), "err", err)
					return err
				}
			}
			if tx.Payee != "" {
				if err := w.payees.Remove(tx.Payee, src); err != nil {
					w.logger.Error("workspace index corrupt", "source", string(src), "err", err)
					return err
				}
			}
		}
	}

	if new != nil {
		for _, tx := range new.Transactions {
			for _, posting := range tx.Postings {
				w.accounts.Insert(posting.Account, src)
			}
			if tx.Payee != "" {
				w.payees.Insert(tx.Payee, src)
			}
		}
	}

	return nil
}

// ChildrenOf returns the next account segments below the prefix, ranked.
func (w *Workspace) ChildrenOf(prefix []string) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.accounts.ChildrenOf(prefix)
}

// QueryPayees returns ranked payees matching the partial text.
func (w *Workspace) QueryPayees(partial string, limit int) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.payees.Query(partial, limit)
}

// AllAccountPaths returns every account path in the index, interior
// prefixes included. Hook for rename and hover features.
func (w *Workspace) AllAccountPaths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.accounts.PathsWithPrefix(nil)
}

// AllPayees returns every payee in the index. Hook for rename and hover
// features.
func (w *Workspace) AllPayees() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.payees.All()
}

// Stats returns the number of account nodes and distinct payees.
func (w *Workspace) Stats() (accounts, payees int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.accounts.NodeCount(), w.payees.Len()
}
