package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-runewidth"

	"github.com/DisezZ/ledger-ls/index"
	"github.com/DisezZ/ledger-ls/journal"
)

// AccountsCmd lists the account hierarchy of a journal, with how often
// each account (or prefix) is referenced by a posting.
type AccountsCmd struct {
	File []byte `help:"Journal input filename." arg:"" type:"filecontent"`
}

func (cmd *AccountsCmd) Run(ctx *kong.Context, globals *Globals) error {
	j := journal.Parse(context.Background(), cmd.File)

	tree := index.NewAccountTree()
	counts := make(map[string]int)
	for _, tx := range j.Transactions {
		for _, posting := range tx.Postings {
			tree.Insert(posting.Account, "cli")
			for i := range posting.Account {
				counts[strings.Join(posting.Account[:i+1], ":")]++
			}
		}
	}

	paths := tree.PathsWithPrefix(nil)
	if len(paths) == 0 {
		printInfof(ctx.Stdout, "no accounts found")
		return nil
	}

	width := 0
	for _, path := range paths {
		if w := runewidth.StringWidth(path); w > width {
			width = w
		}
	}

	for _, path := range paths {
		padding := strings.Repeat(" ", width-runewidth.StringWidth(path))
		_, _ = fmt.Fprintf(ctx.Stdout, "%s%s  %s\n",
			path, padding,
			dimStyle.Render(fmt.Sprintf("%d", counts[path])),
		)
	}
	return nil
}

// PayeesCmd lists the payees of a journal in the completion engine's
// ranking order.
type PayeesCmd struct {
	File []byte `help:"Journal input filename." arg:"" type:"filecontent"`
}

func (cmd *PayeesCmd) Run(ctx *kong.Context, globals *Globals) error {
	j := journal.Parse(context.Background(), cmd.File)

	payees := index.NewPayeeSet()
	counts := make(map[string]int)
	for _, payee := range j.Payees() {
		payees.Insert(payee, "cli")
		counts[strings.ToLower(payee)]++
	}

	ranked := payees.Query("", payees.Len())
	if len(ranked) == 0 {
		printInfof(ctx.Stdout, "no payees found")
		return nil
	}

	width := 0
	for _, payee := range ranked {
		if w := runewidth.StringWidth(payee); w > width {
			width = w
		}
	}

	for _, payee := range ranked {
		padding := strings.Repeat(" ", width-runewidth.StringWidth(payee))
		_, _ = fmt.Fprintf(ctx.Stdout, "%s%s  %s\n",
			payee, padding,
			dimStyle.Render(fmt.Sprintf("%d", counts[strings.ToLower(payee)])),
		)
	}
	return nil
}
