package forecast

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/internal/signals"
	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/models"
)

// NewsSource supplies analyzed news and historical rallies
type NewsSource interface {
	ListRecentNews(ctx context.Context, limit int) ([]models.NewsSignal, error)
	ListHistoricalRallies(ctx context.Context) ([]models.HistoricalRally, error)
}

// Acceptor persists a validated prediction
type Acceptor interface {
	Accept(ctx context.Context, p models.RallyPrediction) (*models.PredictionRecord, error)
}

// Notifier announces newly persisted predictions
type Notifier interface {
	NotifyPrediction(ctx context.Context, rec *models.PredictionRecord) error
}

// RunSummary reports what one forecast run did
type RunSummary struct {
	Result
	Accepted []*models.PredictionRecord
	Failed   int
}

// Service runs the forecast pipeline end to end
type Service struct {
	source       NewsSource
	orchestrator *Orchestrator
	store        Acceptor
	notifiers    []Notifier
	fetchLimit   int
	log          *zap.Logger
}

// NewService creates new forecast service
func NewService(source NewsSource, orchestrator *Orchestrator, store Acceptor, fetchLimit int, notifiers ...Notifier) *Service {
	return &Service{
		source:       source,
		orchestrator: orchestrator,
		store:        store,
		notifiers:    notifiers,
		fetchLimit:   fetchLimit,
		log:          logger.Named("forecast"),
	}
}

// Name returns worker name
func (s *Service) Name() string {
	return "forecast"
}

// Run executes one forecast run
func (s *Service) Run(ctx context.Context) error {
	_, err := s.Execute(ctx)
	return err
}

// Execute loads inputs, generates predictions and persists each one. Only
// repository read failures are returned; per-prediction failures are counted.
func (s *Service) Execute(ctx context.Context) (*RunSummary, error) {
	news, err := s.source.ListRecentNews(ctx, s.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent news: %w", err)
	}

	rallies, err := s.source.ListHistoricalRallies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load historical rallies: %w", err)
	}

	result := s.orchestrator.Generate(ctx, news, signals.ExtractHistoricalPatterns(rallies))
	summary := &RunSummary{Result: result}

	if result.Reason != nil {
		s.log.Info("forecast produced no predictions", zap.Error(result.Reason))
		return summary, nil
	}

	for _, p := range result.Predictions {
		rec, err := s.store.Accept(ctx, p)
		if err != nil {
			summary.Failed++
			s.log.Error("failed to persist prediction",
				zap.String("sector", p.Sector),
				zap.Error(err),
			)
			continue
		}
		summary.Accepted = append(summary.Accepted, rec)

		for _, n := range s.notifiers {
			if err := n.NotifyPrediction(ctx, rec); err != nil {
				s.log.Warn("prediction notification failed", zap.String("id", rec.ID), zap.Error(err))
			}
		}
	}

	s.log.Info("forecast run completed",
		zap.Int("accepted", len(summary.Accepted)),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}
