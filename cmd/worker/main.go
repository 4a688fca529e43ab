package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/app"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/config"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/queue"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Log

	if cfg.Redis.URL == "" {
		return fmt.Errorf("redis.url is required for the worker")
	}

	ctx := context.Background()

	// The worker only syncs and generates; it never writes to YouTube.
	a, err := app.Build(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	quotaInfo, err := a.Quota.GetQuotaInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to get quota info: %w", err)
	}
	log.Info("Quota status",
		zap.Int("used", quotaInfo.QuotaUsed),
		zap.Int("limit", quotaInfo.QuotaLimit),
		zap.Int("remaining", quotaInfo.QuotaRemaining),
	)

	server, err := queue.NewServer(cfg.Redis.URL, cfg.Worker.Concurrency, queue.NewTaskHandler(a.Engine))
	if err != nil {
		return fmt.Errorf("failed to create queue server: %w", err)
	}

	var scheduler *queue.Scheduler
	if cfg.Worker.SyncInterval > 0 {
		scheduler, err = queue.NewScheduler(cfg.Redis.URL, cfg.YouTube.ChannelHandle, cfg.Workflow.SyncLimit, cfg.Worker.SyncInterval)
		if err != nil {
			return err
		}
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer scheduler.Stop()
	}

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start queue server: %w", err)
	}

	log.Info("Worker started",
		zap.Int("concurrency", cfg.Worker.Concurrency),
		zap.Duration("syncInterval", cfg.Worker.SyncInterval),
	)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown

	log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	server.Stop()
	log.Info("Worker stopped gracefully")
	return nil
}
