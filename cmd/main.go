package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/ranked/internal/cli"
	"github.com/okian/ranked/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Initialize logging; simulate re-initializes it from config.
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.Root()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Get().Error(ctx, "command failed", logger.Error(err))
		return 1
	}
	return 0
}
