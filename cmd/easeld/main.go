package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"easel/internal/config"
	"easel/internal/daemon"
	"easel/internal/logging"
	"easel/internal/settings"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, path, warnings, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	if path != "" {
		logger.Info("loaded configuration", slog.String("path", path))
	}
	for _, warning := range warnings {
		logger.Warn("config warning", slog.String("detail", warning))
	}

	store, err := settings.Open(cfg.DatabasePath())
	if err != nil {
		logger.Error("open settings store", slog.Any("error", err))
		return
	}
	defer store.Close()

	registry, err := buildRegistry()
	if err != nil {
		logger.Error("register providers", slog.Any("error", err))
		return
	}

	d, err := daemon.New(cfg, store, registry, logger)
	if err != nil {
		logger.Error("create daemon", slog.Any("error", err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", slog.Any("error", err))
		return
	}

	<-ctx.Done()
	d.Stop()
	logger.Info("easeld shutting down")
}
