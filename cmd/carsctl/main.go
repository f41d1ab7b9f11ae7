// Package main is carsctl, the command-line client for the cars API.
//
// One-shot subcommands (list, get, add, edit, delete) drive the same
// service.Client the web front end uses, so validation, normalization and
// messages are identical. `carsctl tui` opens the interactive terminal UI.
//
// Exit status is 1 whenever the operation failed; the message that the web
// page would have shown in its banner is printed to stderr.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, errOut: os.Stderr, in: os.Stdin}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
