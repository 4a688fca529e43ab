package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/app"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/config"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/confirm"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/handler"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/middleware"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/queue"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
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
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, app.Options{
		Writes:       true,
		Confirmation: serverConfirmation(cfg.Workflow.Confirmation),
	})
	if err != nil {
		return err
	}
	defer a.Close()

	var enqueuer handler.Enqueuer
	if cfg.Redis.URL != "" {
		qc, err := queue.NewClient(cfg.Redis.URL)
		if err != nil {
			log.Warn("Failed to initialize queue client, batches will run inline", zap.Error(err))
		} else {
			defer qc.Close()
			enqueuer = qc
			log.Info("Queue client initialized, sync and generate are handed to the worker")
		}
	}

	if len(cfg.Auth.APIKeys) == 0 {
		log.Warn("No API keys configured - /api/v1 will reject all requests",
			zap.String("env_var", config.EnvPrefix+"_AUTH_APIKEYS"))
	}

	router := handler.NewRouter(handler.Routes{
		Health: handler.NewHealthHandler(a.Pool, a.Events),
		Videos: handler.NewVideoHandler(a.Engine),
		Workflow: handler.NewWorkflowHandler(a.Engine, enqueuer, handler.BatchDefaults{
			ChannelHandle: cfg.YouTube.ChannelHandle,
			Language:      cfg.Workflow.Language,
			Priority:      models.ParsePriority(cfg.Workflow.Priority),
			SyncLimit:     cfg.Workflow.SyncLimit,
			GenerateLimit: cfg.Workflow.GenerateLimit,
			ApplyLimit:    cfg.Workflow.ApplyLimit,
			DryRun:        cfg.Workflow.DryRun,
		}),
		Episodes: handler.NewEpisodeHandler(a.Episodes),
		Quota:    handler.NewQuotaHandler(a.Quota),
		Auth:     middleware.NewAPIKeyAuth(cfg.Auth.APIKeys, log.Named("auth")),
		Metrics:  a.Registry,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting",
			zap.Int("port", cfg.Server.Port),
			zap.Bool("dryRun", cfg.Workflow.DryRun),
		)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			_ = server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("Server stopped gracefully")
	}

	return nil
}

// serverConfirmation replaces the interactive prompt, which has no terminal
// behind an HTTP request, with deny.
func serverConfirmation(policy string) string {
	if p := strings.ToLower(strings.TrimSpace(policy)); p == confirm.PolicyPrompt || p == "" {
		logger.L().Warn("Interactive confirmation is not available in the server, live applies will be declined",
			zap.String("setting", "workflow.confirmation"))
		return confirm.PolicyDeny
	}
	return policy
}
