package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// interrupts cancel the context; the driver notices at the next pass
	// or entry boundary and exits cleanly
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
