package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/DisezZ/ledger-ls/journal"
	"github.com/DisezZ/ledger-ls/telemetry"
)

// CheckCmd parses a journal file and reports every recoverable syntax
// problem the language server would track for it.
type CheckCmd struct {
	File []byte `help:"Journal input filename." arg:"" type:"filecontent"`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx := context.Background()

	var collector telemetry.Collector
	if globals.Telemetry {
		collector = telemetry.NewTimingCollector()
		runCtx = telemetry.WithCollector(runCtx, collector)

		defer func() {
			_, _ = fmt.Fprintln(ctx.Stderr)
			collector.Report(ctx.Stderr)
		}()
	}

	j := journal.Parse(runCtx, cmd.File)

	postings := 0
	for _, tx := range j.Transactions {
		postings += len(tx.Postings)
	}
	printInfof(ctx.Stdout, "%d transaction(s), %d posting(s)", len(j.Transactions), postings)

	if len(j.Problems) == 0 {
		printSuccess(ctx.Stdout, "no syntax problems")
		return nil
	}

	for _, problem := range j.Problems {
		_, _ = fmt.Fprintf(ctx.Stdout, "  %s %s\n",
			posStyle.Render(problem.Pos.String()),
			problem.Message,
		)
	}
	printError(ctx.Stdout, fmt.Sprintf("%d syntax problem(s) found", len(j.Problems)))

	return fmt.Errorf("%d syntax problem(s)", len(j.Problems))
}
