package cli

// Globals are flags shared by all commands.
type Globals struct {
	Telemetry bool `help:"Print a hierarchical timing report to stderr."`
}

// Commands is the full command tree, embedded by the main package.
type Commands struct {
	Globals

	Serve    ServeCmd    `cmd:"" default:"withargs" help:"Run the language server on stdio."`
	Check    CheckCmd    `cmd:"" help:"Parse a journal file and report syntax problems."`
	Accounts AccountsCmd `cmd:"" help:"List the account hierarchy of a journal file."`
	Payees   PayeesCmd   `cmd:"" help:"List the payees of a journal file, ranked."`
}
