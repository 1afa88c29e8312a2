// Package app assembles the alert pipeline from configuration. Every entry
// point builds the same object graph through New.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"propertyalerts/internal/cache"
	"propertyalerts/internal/config"
	"propertyalerts/internal/core"
	"propertyalerts/internal/db"
	"propertyalerts/internal/entitlement"
	"propertyalerts/internal/external"
	ncore "propertyalerts/internal/notifications/core"
	"propertyalerts/internal/notifications/email"
	"propertyalerts/internal/pipeline"
	"propertyalerts/internal/queue"
	"propertyalerts/internal/scheduler"
	"propertyalerts/internal/types"
)

// App is the wired pipeline plus the resources that must be closed.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool         *pgxpool.Pool
	Orchestrator *pipeline.Orchestrator
	Requeuer     *pipeline.Requeuer
	Records      *db.AlertRecordRepository
	Runner       *scheduler.Runner
	Metrics      ncore.PipelineMetrics
	// RateLimiter is nil when REDIS_URL is unset.
	RateLimiter *cache.RedisRateLimitStore
	Probes      []core.HealthProbe
}

// LoadConfig reads configuration, resolving SSM parameters outside local.
func LoadConfig() (*config.Config, error) {
	var provider config.SecretProvider
	if os.Getenv("APP_ENV") != "local" {
		provider = config.NewSSMProvider(os.Getenv("AWS_REGION"))
	}
	return config.LoadConfig(provider)
}

// NewLogger returns a JSON logger on stdout at level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// AWSConfig loads SDK configuration for cfg's region, pointing at
// AWS_ENDPOINT_URL when set.
func AWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.EndpointURL != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.EndpointURL)
	}
	return awsCfg, nil
}

// New connects to Postgres (and Redis when configured) and wires the
// pipeline. Close must be called on the result.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.Database.MigrateOnStart {
		if err := db.RunMigrations(cfg.Database.URL.Unmask()); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.InfoContext(ctx, "database migrations applied")
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Pool: pool}
	a.Probes = append(a.Probes, db.PoolProbe{Pool: pool})

	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger
	domainLogger := types.NewSlogLogger(logger)

	awsCfg, err := AWSConfig(ctx, cfg.AWS)
	if err != nil {
		return err
	}

	if url := cfg.Cache.RedisURL.Unmask(); url != "" {
		limiter, err := cache.NewRedisRateLimitStore(url)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.RateLimiter = limiter
		a.Probes = append(a.Probes, limiter)
	}

	a.Metrics = ncore.NoopMetrics{}
	if cfg.Observability.EnableMetrics {
		a.Metrics = ncore.NewCloudWatchPipelineMetrics(cloudwatch.NewFromConfig(awsCfg), cfg.Observability.MetricNamespace, domainLogger)
	}

	jobs := db.NewAlertJobRepository(a.Pool)
	listings := db.NewListingRepository(a.Pool)
	prefs := db.NewPreferenceRepository(a.Pool, logger)
	profiles := db.NewProfileRepository(a.Pool)
	a.Records = db.NewAlertRecordRepository(a.Pool)
	audit := db.NewAuditRepository(a.Pool)

	recorder := ncore.NewRecorder(a.Records, audit, domainLogger)
	gate := entitlement.NewGate(profiles, recorder, domainLogger)

	provider, err := external.NewEmailProvider(cfg, awsCfg, logger)
	if err != nil {
		return err
	}
	templates, err := email.NewTemplateRegistry(cfg.Email.Templates)
	if err != nil {
		return err
	}
	renderer, err := email.NewRenderer()
	if err != nil {
		return err
	}
	dispatcher := email.NewDispatcher(email.DispatcherConfig{
		Provider:  provider,
		Templates: templates,
		Renderer:  renderer,
		Enricher:  listings,
		From:      types.SenderIdentity{Address: cfg.Email.FromAddress, Name: cfg.Email.FromName},
		SiteURL:   cfg.Server.SiteURL,
		Logger:    domainLogger,
	})

	a.Orchestrator = pipeline.NewOrchestrator(pipeline.Deps{
		Jobs:       jobs,
		Listings:   listings,
		Candidates: prefs,
		Gate:       gate,
		Dispatcher: dispatcher,
		Recorder:   recorder,
		Duplicates: a.Records,
		Metrics:    a.Metrics,
		Logger:     domainLogger,
	}, pipeline.Config{
		MatchConcurrency: cfg.Pipeline.MatchConcurrency,
		SkipDuplicates:   cfg.Pipeline.SkipDuplicates,
	})

	var publisher pipeline.TriggerPublisher
	if cfg.AWS.TriggerQueueURL != "" {
		publisher = queue.NewTriggerPublisher(sqs.NewFromConfig(awsCfg), cfg.AWS.TriggerQueueURL, logger)
	}
	a.Requeuer = pipeline.NewRequeuer(jobs, publisher, types.RealClock{}, cfg.Pipeline.StaleAfter, domainLogger)

	a.Runner = scheduler.NewRunner(scheduler.RunnerConfig{
		Locks:     db.NewJobLockRepository(a.Pool),
		History:   db.NewJobHistoryRepository(a.Pool),
		Processor: a.Orchestrator,
		Requeuer:  a.Requeuer,
		Logger:    logger,
		WorkerID:  cfg.Service + "-" + uuid.NewString(),
		BatchSize: cfg.Pipeline.BatchSize,
	})
	return nil
}

// Close releases the pool and Redis client.
func (a *App) Close() error {
	var err error
	if a.RateLimiter != nil {
		err = a.RateLimiter.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	return err
}
