package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"clipsync/internal/services"
)

// Exit codes: 1 for runtime failures, 2 when the input itself was rejected.
const (
	exitFailure      = 1
	exitInvalidInput = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, os.Stderr))
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, err)
	}
	if services.IsCallerError(err) {
		return exitInvalidInput
	}
	return exitFailure
}
