package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/internal/adapters/ai"
	"github.com/selivandex/rally-radar/internal/adapters/clickhouse"
	"github.com/selivandex/rally-radar/internal/adapters/config"
	"github.com/selivandex/rally-radar/internal/adapters/database"
	"github.com/selivandex/rally-radar/internal/adapters/market"
	redisAdapter "github.com/selivandex/rally-radar/internal/adapters/redis"
	"github.com/selivandex/rally-radar/internal/adapters/telegram"
	"github.com/selivandex/rally-radar/internal/backtest"
	"github.com/selivandex/rally-radar/internal/forecast"
	"github.com/selivandex/rally-radar/internal/health"
	"github.com/selivandex/rally-radar/internal/options"
	"github.com/selivandex/rally-radar/internal/predictions"
	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/templates"
)

// Options selects how the pipeline is assembled
type Options struct {
	// InMemory uses the memory repository instead of PostgreSQL
	InMemory bool
	// SkipSinks disables Telegram and ClickHouse
	SkipSinks bool
}

// App holds the wired pipeline components
type App struct {
	Config      *config.Config
	Repo        predictions.Repository
	Market      market.DataProvider
	Reasoner    ai.Reasoner
	Store       *predictions.Store
	Forecast    *forecast.Service
	Evaluator   *backtest.Evaluator
	Recommender *options.Recommender

	// Checks probe the connected infrastructure
	Checks map[string]health.Check

	closers []func() error
}

// New connects the infrastructure named in cfg and wires every component
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg, Checks: map[string]health.Check{}}

	if err := a.initRepository(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}

	redisClient := a.initRedis(ctx)
	a.initMarket(redisClient)

	chain, err := ai.NewFromConfig(ctx, cfg.AI)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to init reasoning providers: %w", err)
	}
	a.Reasoner = chain

	prompts, err := templates.Default()
	if err != nil {
		a.Close()
		return nil, err
	}

	var notifier *telegram.Notifier
	var sinks []backtest.Sink
	if !opts.SkipSinks {
		notifier = a.initTelegram()
		if notifier != nil {
			sinks = append(sinks, notifier)
		}
		if recorder := a.initClickHouse(ctx); recorder != nil {
			sinks = append(sinks, recorder)
		}
	}

	a.Store = predictions.NewStore(a.Repo, a.Market)

	orchestrator := forecast.NewOrchestrator(a.Reasoner, prompts, cfg.Forecast, nil)
	var notifiers []forecast.Notifier
	if notifier != nil {
		notifiers = append(notifiers, notifier)
	}
	a.Forecast = forecast.NewService(a.Repo, orchestrator, a.Store, cfg.Forecast.FetchLimit, notifiers...)

	var lock redisAdapter.RunLock = redisAdapter.NoopLock{}
	if redisClient != nil {
		lock = redisClient.NewLock("backtest", cfg.Backtest.LockTTL)
	}
	a.Evaluator = backtest.NewEvaluator(a.Repo, a.Market, lock, cfg.Backtest.SuccessThreshold, sinks...)

	a.Recommender = options.NewRecommender(a.Market, a.Reasoner, prompts, options.PolicyFromConfig(cfg.Options))

	return a, nil
}

func (a *App) initRepository(ctx context.Context, opts Options) error {
	if opts.InMemory {
		logger.Info("using in-memory prediction repository")
		a.Repo = predictions.NewMemoryRepository()
		return nil
	}

	db, err := database.New(ctx, a.Config.Database)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, db.Close)
	a.Checks["database"] = db.Health

	if err := database.RunMigrations(db.DB().DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	a.Repo = predictions.NewPostgresRepository(db.DB())
	return nil
}

func (a *App) initRedis(ctx context.Context) *redisAdapter.Client {
	if !a.Config.Redis.Enabled {
		return nil
	}

	client, err := redisAdapter.New(ctx, a.Config.Redis)
	if err != nil {
		logger.Warn("redis not available, running without quote cache and run lock", zap.Error(err))
		return nil
	}
	a.closers = append(a.closers, client.Close)
	a.Checks["redis"] = client.Health
	return client
}

func (a *App) initMarket(redisClient *redisAdapter.Client) {
	var provider market.DataProvider = market.NewTradierClient(a.Config.Market)
	if redisClient != nil && a.Config.Market.QuoteCacheTTL > 0 {
		provider = market.WithQuoteCache(provider, redisClient, a.Config.Market.QuoteCacheTTL)
	}
	a.Market = provider
}

func (a *App) initTelegram() *telegram.Notifier {
	if !a.Config.Telegram.Enabled {
		return nil
	}

	notifier, err := telegram.NewNotifier(a.Config.Telegram)
	if err != nil {
		logger.Warn("telegram notifier not available", zap.Error(err))
		return nil
	}
	return notifier
}

func (a *App) initClickHouse(ctx context.Context) *clickhouse.OutcomeRecorder {
	if !a.Config.ClickHouse.Enabled {
		return nil
	}

	conn, err := database.NewClickHouse(ctx, a.Config.ClickHouse)
	if err != nil {
		logger.Warn("clickhouse not available, outcome analytics disabled", zap.Error(err))
		return nil
	}

	repo := clickhouse.NewRepository(conn)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Warn("failed to prepare clickhouse schema", zap.Error(err))
		_ = conn.Close()
		return nil
	}

	recorder := clickhouse.NewOutcomeRecorder(repo, a.Config.ClickHouse.BatchSize, a.Config.ClickHouse.Flush)
	// Closers run in reverse, so the recorder flushes before the connection closes
	a.closers = append(a.closers, conn.Close, recorder.Close)
	return recorder
}

// Close releases infrastructure in reverse order of acquisition
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
