// Package app wires the service's dependencies for the server and worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/toolsdir/api/internal/agent"
	"github.com/toolsdir/api/internal/config"
	"github.com/toolsdir/api/internal/database"
	"github.com/toolsdir/api/internal/discovery"
	"github.com/toolsdir/api/internal/eventbus"
	"github.com/toolsdir/api/internal/handlers"
	"github.com/toolsdir/api/internal/jobs"
	"github.com/toolsdir/api/internal/middleware"
	"github.com/toolsdir/api/internal/news"
	"github.com/toolsdir/api/internal/notify"
	"github.com/toolsdir/api/internal/orchestration"
	"github.com/toolsdir/api/internal/provider/anthropic"
	"github.com/toolsdir/api/internal/repository"
	"github.com/toolsdir/api/internal/seo"
	"github.com/toolsdir/api/internal/storage"
	"github.com/toolsdir/api/internal/usage"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zapConfig.Level = level
	return zapConfig.Build()
}

// App holds the long-lived collaborators. Optional infrastructure that could
// not be reached is left nil and the service runs degraded.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Postgres *database.Postgres
	Redis    *database.Redis
	Bus      *eventbus.Bus
	Events   eventbus.EventStore
	Temporal client.Client
	Covers   *storage.CoverStore

	Provider     *anthropic.Client
	Orchestrator *agent.Orchestrator
	Runner       *jobs.Runner
	Local        *jobs.LocalDispatcher
	Dispatcher   jobs.Dispatcher

	pages  *repository.SEOPageRepository
	news   *repository.NewsRepository
	events *repository.EventRepository
}

// New connects to everything cfg points at. Only configuration and seed
// errors are fatal; unreachable infrastructure is logged and skipped.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	a.connectDatabase(ctx)
	a.connectRedis(ctx)
	a.connectNATS()
	a.connectStorage(ctx)

	a.Provider = anthropic.NewClient(anthropic.Config{
		APIKey:    cfg.Anthropic.APIKey,
		BaseURL:   cfg.Anthropic.BaseURL,
		Model:     cfg.Anthropic.Model,
		Version:   cfg.Anthropic.Version,
		MaxTokens: cfg.Anthropic.MaxTokens,
		Timeout:   cfg.Anthropic.Timeout,
	}, nil)
	if !a.Provider.Configured() {
		logger.Warn("anthropic api key not set, agents serve fallback content only")
	}

	registry, err := agent.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("agent registry: %w", err)
	}
	opts := agent.Options{
		Breaker: agent.NewCircuitBreaker(cfg.Agents.BreakerFailures, 1, cfg.Agents.BreakerCooldown),
		Limiter: agent.NewSpendLimiter(cfg.Agents.ClientQuota, cfg.Agents.ClientQuota, cfg.Agents.QuotaPeriod),
		Timeout: cfg.Anthropic.Timeout,
	}
	if a.Postgres != nil {
		opts.Usage = usage.NewLedger(a.Postgres.Pool(), logger)
	}
	a.Orchestrator = agent.NewOrchestrator(registry, a.Provider, logger, opts)

	jobRegistry, err := a.buildJobs(cfg)
	if err != nil {
		return nil, err
	}
	runnerOpts := jobs.RunnerOptions{Concurrency: cfg.Jobs.Concurrency}
	if a.Redis != nil {
		runnerOpts.Status = jobs.NewRedisStatusStore(a.Redis.Client(), cfg.Jobs.StatusTTL)
	}
	if a.Bus != nil {
		runnerOpts.Publisher = a.Bus
	}
	if n := notify.NewSNSNotifier(cfg.Notify, logger); n != nil {
		runnerOpts.Notifier = n
	}
	a.Runner = jobs.NewRunner(jobRegistry, logger, runnerOpts)
	a.Local = jobs.NewLocalDispatcher(a.Runner, cfg.Jobs.Timeout, logger)
	a.Dispatcher = a.Local

	return a, nil
}

// ConnectTemporal switches job dispatch to Temporal, keeping in-process runs
// as the fallback when a workflow cannot be started.
func (a *App) ConnectTemporal() error {
	if a.Config.Temporal.HostPort == "" {
		return errors.New("temporal host not configured")
	}
	c, err := orchestration.InitTemporalClient(a.Config.Temporal.HostPort, a.Config.Temporal.Namespace, a.Logger)
	if err != nil {
		return err
	}
	a.Temporal = c
	a.Dispatcher = &jobs.FallbackDispatcher{
		Primary:   orchestration.NewTemporalDispatcher(c, a.Config.Temporal.TaskQueue, a.Logger),
		Secondary: a.Local,
		Logger:    a.Logger,
	}
	return nil
}

func (a *App) connectDatabase(ctx context.Context) {
	cfg := a.Config.Database
	if cfg.URL == "" {
		a.Logger.Warn("database url not set, generated content will not be persisted")
		return
	}
	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.URL, a.Logger); err != nil {
			a.Logger.Error("failed to run migrations", zap.Error(err))
		}
	}
	db, err := database.NewPostgres(ctx, cfg.URL)
	if err != nil {
		a.Logger.Error("failed to connect to database", zap.Error(err))
		return
	}
	a.Postgres = db
	a.pages = repository.NewSEOPageRepository(db.Pool())
	a.news = repository.NewNewsRepository(db.Pool())
	a.events = repository.NewEventRepository(db.Pool())
	a.Logger.Info("connected to database")
}

func (a *App) connectRedis(ctx context.Context) {
	if a.Config.Redis.URL == "" {
		return
	}
	rdb, err := database.NewRedis(ctx, a.Config.Redis.URL)
	if err != nil {
		a.Logger.Error("failed to connect to redis", zap.Error(err))
		return
	}
	a.Redis = rdb
	a.Logger.Info("connected to redis")
}

func (a *App) connectNATS() {
	if a.Config.NATS.URL == "" {
		return
	}
	bus, err := eventbus.Connect(a.Config.NATS.URL, a.Logger)
	if err != nil {
		a.Logger.Error("failed to connect to NATS", zap.Error(err))
		return
	}
	a.Bus = bus
	a.Logger.Info("connected to NATS")

	store, err := eventbus.NewJetStreamStore(bus)
	if err != nil {
		a.Logger.Warn("JetStream event store unavailable", zap.Error(err))
		return
	}
	a.Events = store
}

func (a *App) connectStorage(ctx context.Context) {
	covers, err := storage.NewCoverStore(a.Config.Storage)
	if err != nil {
		a.Logger.Error("failed to configure cover storage", zap.Error(err))
		return
	}
	if covers == nil {
		return
	}
	if err := covers.EnsureBucket(ctx); err != nil {
		a.Logger.Error("cover bucket unavailable", zap.Error(err))
		return
	}
	a.Covers = covers
}

func (a *App) buildJobs(cfg *config.Config) (*jobs.Registry, error) {
	seeds, err := jobs.LoadSeeds(cfg.Jobs.SeedFile)
	if err != nil {
		return nil, err
	}

	// Stores are interface-typed below; leave them nil without a database
	// so the jobs see a nil interface, not a typed nil pointer.
	var (
		pages   seo.PageStore
		tools   discovery.ToolStore
		related seo.ToolFinder
		prompts discovery.PromptStore
		items   news.Store
	)
	if a.Postgres != nil {
		toolRepo := repository.NewToolRepository(a.Postgres.Pool())
		pages, tools, related = a.pages, toolRepo, toolRepo
		prompts = repository.NewPromptRepository(a.Postgres.Pool())
		items = a.news
	}
	seoOpts := seo.Options{Tools: related, SiteURL: cfg.Site.BaseURL}
	if a.Covers != nil {
		seoOpts.Covers = a.Covers
	}

	return jobs.NewRegistry(seeds,
		seo.NewJob(a.Orchestrator, pages, a.Logger, seoOpts),
		discovery.NewToolsJob(a.Orchestrator, tools, a.Logger),
		discovery.NewPromptsJob(a.Orchestrator, prompts, a.Logger),
		news.NewJob(a.Orchestrator, news.NewFetcher(nil), items, a.Logger),
	), nil
}

// Routes builds the HTTP handlers.
func (a *App) Routes() *handlers.Routes {
	deps := handlers.HealthDeps{Provider: a.Provider}
	var (
		pages  handlers.PageReader
		items  handlers.NewsReader
		events handlers.EventInserter
	)
	if a.Postgres != nil {
		deps.Database = a.Postgres
		pages, items, events = a.pages, a.news, a.events
	}
	if a.Redis != nil {
		deps.Redis = a.Redis
	}
	if a.Bus != nil {
		deps.NATS = a.Bus
	}

	return &handlers.Routes{
		Health:  handlers.NewHealthHandler(deps),
		Agents:  handlers.NewAgentHandler(a.Orchestrator, a.Logger),
		Events:  handlers.NewEventHandler(events, a.Events, a.Logger),
		Jobs:    handlers.NewJobHandler(a.Runner, a.Dispatcher, a.Logger),
		Content: handlers.NewContentHandler(pages, items, a.Logger),
		JobAuth: middleware.RequireJobAuth(jobs.NewAuthorizer(a.Config.Jobs.Secret), a.Logger),
	}
}

// Close waits for in-process job runs (bounded by ctx) and releases connections.
func (a *App) Close(ctx context.Context) {
	if err := a.Local.Wait(ctx); err != nil {
		a.Logger.Warn("job runs still in flight at shutdown", zap.Error(err))
	}
	if a.Temporal != nil {
		a.Temporal.Close()
	}
	a.Bus.Close()
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.Postgres != nil {
		a.Postgres.Close()
	}
}
