package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dispatchengine/engine/internal/app"
)

func main() {
	cfg := app.LoadConfig()

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	// SIGINT drives Run's normal exit path (cooperative-then-forced
	// shutdown); SIGTERM stops immediately, independent of that path.
	ctx, stopOnInterrupt := signal.NotifyContext(context.Background(), syscall.SIGINT)
	defer stopOnInterrupt()

	term := make(chan os.Signal, 1)
	signal.Notify(term, syscall.SIGTERM)
	go func() {
		<-term
		_ = a.StopNow(context.Background())
		os.Exit(0)
	}()

	if err := a.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server exited: %v\n", err)
		os.Exit(1)
	}
}
