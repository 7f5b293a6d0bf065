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
		fmt.Fprintf(os.Stderr, "sample api start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("sample api starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := app.NewSampleAPI(cfg, logger.Global{})
	if err != nil {
		logger.ErrorObj("failed to initialize sample api", "error", err)
		return err
	}

	if err := api.Run(ctx); err != nil {
		return fmt.Errorf("sample api run: %w", err)
	}

	return nil
}
