// Command stardock-launcher is the unified runtime launcher end users
// run. It validates the API key, presents the game-mode menu, extracts
// the chosen embedded application to a private temporary location,
// executes it, and exits with the child's status.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stardock/stardock/internal/launcher"
)

func main() {
	cfg, err := launcher.ParseConfig(os.Environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	l := launcher.New(
		cfg,
		os.Stdin,
		os.Stdout,
		launcher.DefaultLocator(cfg.BundleDir),
		launcher.NewExecutor(os.Stdin, os.Stdout, os.Stderr),
	)

	// An interrupt at any blocking point is a user-initiated graceful
	// exit: farewell, status 0.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println()
		l.Farewell()
		os.Exit(0)
	}()

	os.Exit(l.Run(context.Background()))
}
