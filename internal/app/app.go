// Package app wires configuration into a ready workflow engine. The server,
// the worker and the CLI all build their dependencies here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/youtube/v3"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/config"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/confirm"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/repository"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/enrichment"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/events"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/llm"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/queue"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/seo"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/service/quota"
	ytsvc "github.com/ad-tracker/youtube-seo-workflow-go/internal/service/youtube"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/workflow"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

// Publisher is an event publisher that can report its health.
type Publisher interface {
	workflow.EventPublisher
	IsHealthy() bool
	Close() error
}

// Options select which optional parts Build sets up.
type Options struct {
	// Writes builds the YouTube sink from the stored OAuth token. Without
	// it ApplySuggestions returns workflow.ErrNotConfigured.
	Writes bool
	// LiveWrites clears the configured workflow.dryrun switch on the sink.
	// The per-call dry-run flag still applies.
	LiveWrites bool
	// Confirmation overrides workflow.confirmation when non-empty.
	Confirmation string
	// ConfirmIn and ConfirmOut back the interactive prompt.
	ConfirmIn  io.Reader
	ConfirmOut io.Writer
}

// App holds the long-lived dependencies of a process.
type App struct {
	Config   *config.Config
	Pool     *pgxpool.Pool
	Engine   *workflow.Engine
	Quota    *quota.Manager
	Episodes enrichment.Lookup
	Events   Publisher
	Registry *prometheus.Registry
	Redis    *redis.Client

	log     *zap.Logger
	closers []func() error
}

// Build connects to every configured backend and assembles the engine.
// Optional backends (episode DB, Redis, RabbitMQ, YouTube) that fail to
// initialize are logged and left out.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
		log:      logger.L().Named("app"),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pool, err := db.NewPool(ctx, db.FromAppConfig(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.Pool = pool
	a.closers = append(a.closers, func() error { pool.Close(); return nil })

	a.log.Info("Database connection established", zap.Int32("maxConns", pool.Config().MaxConns))

	quotaRepo := repository.NewQuotaRepository(pool)
	a.Quota = quota.NewManager(quotaRepo, cfg.YouTube.DailyQuota, cfg.YouTube.QuotaThreshold)

	metrics := workflow.NewMetrics(a.Registry)

	client, err := llm.New(cfg.LLM)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}
	generator, err := seo.NewGenerator(client, nil, seo.FallbacksFromConfig(cfg.SEO),
		seo.WithFallbackObserver(func(f seo.Field) { metrics.FieldFallback(string(f)) }))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build generator: %w", err)
	}

	a.Redis = a.redisClient()
	a.Episodes = a.episodes()
	a.Events = a.publisher()

	deps := workflow.Deps{
		Videos:      repository.NewVideoRepository(pool),
		Suggestions: repository.NewSuggestionRepository(pool),
		Changes:     repository.NewAppliedChangeRepository(pool),
		Channels:    repository.NewChannelRepository(pool),
		Tx:          db.NewTxManager(pool),
		Locker:      repository.NewAdvisoryLocker(pool),
		Generator:   generator,
		Episodes:    a.Episodes,
		Events:      a.Events,
		Metrics:     metrics,
	}

	if src := a.source(ctx); src != nil {
		deps.Source = src
	}
	if opts.Writes {
		sink, err := a.sink(ctx, opts)
		if err != nil {
			a.Close()
			return nil, err
		}
		if sink != nil {
			deps.Sink = sink
		}
	}

	a.Engine = workflow.New(deps, workflow.Options{
		Language: cfg.Workflow.Language,
		Priority: models.ParsePriority(cfg.Workflow.Priority),
	})
	return a, nil
}

func (a *App) redisClient() *redis.Client {
	if a.Config.Redis.URL == "" {
		return nil
	}
	rdb, err := queue.NewRedisClient(a.Config.Redis.URL)
	if err != nil {
		a.log.Warn("Invalid redis URL, episode cache disabled", zap.Error(err))
		return nil
	}
	a.closers = append(a.closers, rdb.Close)
	return rdb
}

func (a *App) episodes() enrichment.Lookup {
	store, err := enrichment.OpenSQLiteStore(a.Config.Enrichment.DBPath)
	if err != nil {
		if !errors.Is(err, enrichment.ErrUnavailable) || a.Config.Enrichment.DBPath != "" {
			a.log.Warn("Episode database unavailable, generating without episode context", zap.Error(err))
		}
		return enrichment.Disabled{}
	}
	a.closers = append(a.closers, store.Close)

	if a.Redis == nil {
		return store
	}
	return enrichment.NewCachedLookup(store, a.Redis, a.Config.Enrichment.CacheTTL)
}

func (a *App) publisher() Publisher {
	if a.Config.RabbitMQ.Host == "" {
		return events.Noop{}
	}
	pub, err := events.NewPublisher(a.Config.RabbitMQ)
	if err != nil {
		a.log.Warn("RabbitMQ unavailable, status events disabled", zap.Error(err))
		return events.Noop{}
	}
	a.closers = append(a.closers, pub.Close)
	return pub
}

// source reads with the API key when one is set and falls back to the OAuth
// token, so an operator with only OAuth credentials can still sync.
func (a *App) source(ctx context.Context) *ytsvc.Source {
	yt := a.Config.YouTube

	var (
		svc *youtube.Service
		err error
	)
	if yt.APIKey != "" {
		svc, err = ytsvc.NewAPIKeyService(ctx, yt.APIKey)
	} else {
		svc, err = ytsvc.NewOAuthService(ctx, yt.ClientSecretFile, yt.TokenFile)
	}
	if err != nil {
		a.log.Warn("YouTube reads unavailable, sync and fetch are disabled", zap.Error(err))
		return nil
	}
	return ytsvc.NewSource(svc, a.Quota)
}

func (a *App) sink(ctx context.Context, opts Options) (*ytsvc.Sink, error) {
	yt := a.Config.YouTube

	policy := a.Config.Workflow.Confirmation
	if opts.Confirmation != "" {
		policy = opts.Confirmation
	}
	provider, err := confirm.FromPolicy(policy, opts.ConfirmIn, opts.ConfirmOut)
	if err != nil {
		return nil, err
	}

	svc, err := ytsvc.NewOAuthService(ctx, yt.ClientSecretFile, yt.TokenFile)
	if err != nil {
		a.log.Warn("YouTube writes unavailable, apply is disabled", zap.Error(err))
		return nil, nil
	}

	return ytsvc.NewSink(svc, a.Quota, provider, ytsvc.SinkConfig{
		DryRun:          a.Config.Workflow.DryRun && !opts.LiveWrites,
		WritesPerSecond: yt.WritesPerSecond,
	}), nil
}

// Close releases everything Build opened, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
