package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/DisezZ/ledger-ls/server"
)

// ServeCmd runs the language server on stdio. Logs go to stderr because
// stdout carries the JSON-RPC stream.
type ServeCmd struct {
	LogFile         string `help:"Append logs to this file instead of stderr." type:"path"`
	Debug           bool   `help:"Enable debug logging."`
	NoWorkspaceScan bool   `help:"Do not index journal files found in the workspace root."`
}

func (cmd *ServeCmd) Run(ctx *kong.Context, globals *Globals) error {
	logW := os.Stderr
	if cmd.LogFile != "" {
		f, err := os.OpenFile(cmd.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		logW = f
	}

	level := slog.LevelInfo
	if cmd.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logW, &slog.HandlerOptions{Level: level}))

	srv := server.New(logger, server.WithWorkspaceScan(!cmd.NoWorkspaceScan))
	return server.RunStdio(context.Background(), srv, logger)
}
