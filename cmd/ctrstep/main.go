package main

import (
	"log/slog"
	"os"

	"github.com/cruciblehq/ctrstep/internal"
	"github.com/cruciblehq/ctrstep/internal/cli"
	"github.com/cruciblehq/ctrstep/internal/paths"
)

// The entry point for the ctrstep CLI.
//
// Initializes logging, records startup information, and executes the root
// command. If any error occurs during execution, it exits with a non-zero code.
func main() {
	slog.SetDefault(logger())

	slog.Debug("build", "version", internal.VersionString())

	slog.Debug("ctrstep is running",
		"pid", os.Getpid(),
		"cwd", paths.WorkingDir(),
		"args", os.Args,
	)

	if err := cli.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// Creates a text logger on stderr whose level follows [internal.LogLevel],
// so the level can be changed after flag parsing.
func logger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: &internal.LogLevel,
	})
	return slog.New(handler).With("app", internal.Name)
}
