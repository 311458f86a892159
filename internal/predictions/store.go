package predictions

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/internal/adapters/market"
	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/models"
)

// Store accepts validated predictions and records their entry price snapshot
type Store struct {
	repo   Repository
	quotes market.QuoteProvider
	now    func() time.Time
	log    *zap.Logger
}

// NewStore creates new prediction store. quotes may be nil, in which case
// predictions are stored with an empty snapshot.
func NewStore(repo Repository, quotes market.QuoteProvider) *Store {
	return &Store{
		repo:   repo,
		quotes: quotes,
		now:    time.Now,
		log:    logger.Named("predictions"),
	}
}

// Accept snapshots current prices for the recommended stocks and persists a
// pending record. Tickers without a price are left out of the snapshot.
func (s *Store) Accept(ctx context.Context, p models.RallyPrediction) (*models.PredictionRecord, error) {
	prices := s.snapshot(ctx, p.RecommendedStocks)

	rec := models.NewPredictionRecord(p, s.now().UTC(), prices)
	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to insert prediction: %w", err)
	}

	s.log.Info("prediction accepted",
		zap.String("id", rec.ID),
		zap.String("sector", rec.Sector),
		zap.String("type", string(rec.OpportunityType)),
		zap.Int("confidence", rec.Confidence),
		zap.Int("priced", len(rec.InitialPrices)),
		zap.Int("tickers", len(rec.RecommendedStocks)),
		zap.String("window", rec.EvaluationWindow),
	)

	return rec, nil
}

// Get returns a stored prediction
func (s *Store) Get(ctx context.Context, id string) (*models.PredictionRecord, error) {
	return s.repo.Get(ctx, id)
}

func (s *Store) snapshot(ctx context.Context, tickers []string) map[string]float64 {
	prices := make(map[string]float64, len(tickers))
	if s.quotes == nil || len(tickers) == 0 {
		return prices
	}

	quotes, err := s.quotes.GetQuotes(ctx, tickers)
	if err != nil {
		s.log.Warn("price snapshot is partial", zap.Int("resolved", len(quotes)), zap.Error(err))
	}

	for _, t := range tickers {
		if q, ok := quotes[t]; ok && q != nil && q.Price > 0 {
			prices[t] = q.Price
		}
	}
	return prices
}
