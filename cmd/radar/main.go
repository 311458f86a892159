package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/internal/adapters/config"
	"github.com/selivandex/rally-radar/internal/app"
	"github.com/selivandex/rally-radar/internal/health"
	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("rally radar starting",
		zap.String("forecast_schedule", cfg.Forecast.Schedule),
		zap.Duration("backtest_interval", cfg.Backtest.Interval),
		zap.Strings("ai_providers", cfg.AI.EnabledProviders()),
	)

	pipeline, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer pipeline.Close()

	group := worker.NewGroup(ctx)
	if err := group.AddCron(pipeline.Forecast, cfg.Forecast.Schedule); err != nil {
		return fmt.Errorf("invalid forecast schedule: %w", err)
	}
	group.Add(pipeline.Evaluator, cfg.Backtest.Interval)

	group.Start()
	logger.Info("workers started")

	var probes *health.Server
	if cfg.Health.Port != "" {
		probes = health.NewServer(cfg.Health.Port, pipeline.Checks)
		go func() {
			if err := probes.Start(); err != nil {
				logger.Error("health server failed", zap.Error(err))
			}
		}()
		probes.SetReady(true)
	}

	<-ctx.Done()

	logger.Info("shutting down workers")
	if probes != nil {
		probes.SetReady(false)
		stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		if err := probes.Stop(stopCtx); err != nil {
			logger.Warn("failed to stop health server", zap.Error(err))
		}
		stop()
	}
	group.Stop(shutdownTimeout)

	logger.Info("rally radar stopped")
	return nil
}

func initConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}
