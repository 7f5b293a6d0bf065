package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/completion-bench/internal/app"
	"github.com/samvad-hq/completion-bench/internal/config"
	"github.com/samvad-hq/completion-bench/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bench failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sugar, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("bench starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := app.NewBench(ctx, cfg, logger.Global{}, app.WithSugaredLogger(sugar))
	if err != nil {
		logger.ErrorObj("failed to initialize bench", "error", err)
		return err
	}

	if err := b.Run(ctx, os.Stdout); err != nil {
		return fmt.Errorf("bench run: %w", err)
	}

	return nil
}
