package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spachava753/benchbuild/internal/cli"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	// Listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("interrupt received, stopping build", "signal", sig)
		cancel()
	}()

	code := cli.NewApp().Execute(ctx, os.Args[1:])

	signal.Stop(sigChan)
	cancel()
	os.Exit(code)
}
