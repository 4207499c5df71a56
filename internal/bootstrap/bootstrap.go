package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/steelhub/parts-matcher/internal/config"
	"github.com/steelhub/parts-matcher/internal/core/ports"
	"github.com/steelhub/parts-matcher/internal/core/usecase"
	"github.com/steelhub/parts-matcher/internal/infrastructure/queue/nats"
	"github.com/steelhub/parts-matcher/internal/infrastructure/repository/postgres"
	"github.com/steelhub/parts-matcher/internal/infrastructure/resilience"
	"github.com/steelhub/parts-matcher/internal/observability/logging"
	"github.com/steelhub/parts-matcher/internal/observability/metrics"
)

// App wires the matching engine and its collaborators once at process start;
// everything downstream receives dependencies explicitly.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Matcher ports.PartsMatcher
	Orders  ports.OrderRepository
	Results ports.MatchResultRepository
	Queue   *nats.Queue
	Metrics *metrics.MatcherMetrics

	db *sql.DB
}

func New(ctx context.Context, service string, cfg config.Config) (*App, error) {
	if err := cfg.LoadThresholdsFile(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), nil)
	catalog := postgres.NewCatalogRepository(db, executor)
	orders := postgres.NewOrderRepository(db)
	results := postgres.NewMatchResultRepository(db)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	matcherMetrics := metrics.NewMatcherMetrics(service)

	burst := int(cfg.CatalogQueriesPerSecond)
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.CatalogQueriesPerSecond), burst)
	engine := usecase.NewCatalogQueryEngine(catalog, limiter, logging.WithComponent(logger, "catalog_query"))
	registry := usecase.NewStrategyRegistry(engine)
	runner := usecase.NewStrategyRunner(cfg.MinConfidenceThreshold, logging.WithComponent(logger, "strategy_runner"))
	processor := usecase.NewMatchProcessor()

	gates, err := usecase.NewQualityGateManager(cfg.QualityLevel, cfg.QualityThresholds)
	if err != nil {
		queue.Close()
		db.Close()
		return nil, err
	}

	orchestrator, err := usecase.NewMatchingOrchestrator(
		registry,
		runner,
		processor,
		gates,
		matcherMetrics,
		logging.WithComponent(logger, "orchestrator"),
		usecase.MatcherOptions{
			MaxMatchesPerItem:       cfg.MaxMatchesPerItem,
			MinConfidence:           cfg.MinConfidenceThreshold,
			FuzzyFallbackThreshold:  cfg.FuzzyFallbackThreshold,
			HighConfidenceThreshold: cfg.HighConfidenceThreshold,
			MaxConcurrent:           cfg.MaxConcurrentTasks,
			BatchTimeout:            cfg.BatchTimeout,
		},
	)
	if err != nil {
		queue.Close()
		db.Close()
		return nil, err
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Matcher: orchestrator,
		Orders:  orders,
		Results: results,
		Queue:   queue,
		Metrics: matcherMetrics,
		db:      db,
	}, nil
}

func (a *App) Close() {
	if a.Queue != nil {
		a.Queue.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
