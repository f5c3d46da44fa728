package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hrassist/internal/cli"
)

func main() {
	// Cancelled on interrupt so the server shuts down gracefully
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
