package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"governai/internal/app"
	"governai/internal/config"
	"governai/internal/logger"
)

func main() {
	slog.SetDefault(logger.New(os.Stdout, false))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.Debug)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}

	application, err := app.New(cfg, deps, log)
	if err != nil {
		return err
	}

	return application.Run(ctx)
}
