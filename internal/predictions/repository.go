package predictions

import (
	"context"
	"errors"
	"time"

	"github.com/selivandex/rally-radar/pkg/models"
)

// ErrNotFound is returned when a prediction id is unknown
var ErrNotFound = errors.New("prediction not found")

// Repository persists predictions and serves the forecast inputs
type Repository interface {
	// Insert stores a new pending record in a single atomic write
	Insert(ctx context.Context, rec *models.PredictionRecord) error

	// Get returns one record or ErrNotFound
	Get(ctx context.Context, id string) (*models.PredictionRecord, error)

	// ListPending returns records not yet evaluated, oldest first
	ListPending(ctx context.Context) ([]*models.PredictionRecord, error)

	// CompleteEvaluation moves a pending record to completed. It reports false
	// when the record was already completed (or does not exist).
	CompleteEvaluation(ctx context.Context, id string, outcome models.Outcome, performance string, at time.Time) (bool, error)

	// ListRecentNews returns up to limit analyzed news items, newest first
	ListRecentNews(ctx context.Context, limit int) ([]models.NewsSignal, error)

	// ListHistoricalRallies returns reference rallies
	ListHistoricalRallies(ctx context.Context) ([]models.HistoricalRally, error)
}
