package predictions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/models"
)

// PostgresRepository stores predictions in PostgreSQL
type PostgresRepository struct {
	db  *sqlx.DB
	now func() time.Time
	log *zap.Logger
}

// NewPostgresRepository creates new postgres repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db:  db,
		now: time.Now,
		log: logger.Named("predictions.postgres"),
	}
}

type predictionRow struct {
	ID                string         `db:"id"`
	Sector            string         `db:"sector"`
	OpportunityType   string         `db:"opportunity_type"`
	Direction         string         `db:"direction"`
	Confidence        int            `db:"confidence"`
	Timeframe         string         `db:"timeframe"`
	EarlySignals      []byte         `db:"early_signals"`
	RecommendedStocks []byte         `db:"recommended_stocks"`
	Reasoning         string         `db:"reasoning"`
	EntryTiming       string         `db:"entry_timing"`
	ExitStrategy      string         `db:"exit_strategy"`
	StartDate         time.Time      `db:"start_date"`
	EvaluationWindow  string         `db:"evaluation_window"`
	InitialPrices     []byte         `db:"initial_prices"`
	BacktestStatus    string         `db:"backtest_status"`
	Outcome           sql.NullString `db:"prediction_outcome"`
	Performance       sql.NullString `db:"performance"`
	EvaluatedAt       sql.NullTime   `db:"evaluated_at"`
	CreatedAt         time.Time      `db:"created_at"`
}

const predictionColumns = `
	id, sector, opportunity_type, direction, confidence, timeframe,
	early_signals, recommended_stocks, reasoning, entry_timing, exit_strategy,
	start_date, evaluation_window, initial_prices, backtest_status,
	prediction_outcome, performance, evaluated_at, created_at`

func (r *predictionRow) toRecord() (*models.PredictionRecord, error) {
	rec := &models.PredictionRecord{
		RallyPrediction: models.RallyPrediction{
			Sector:          r.Sector,
			OpportunityType: models.OpportunityType(r.OpportunityType),
			Direction:       models.Direction(r.Direction),
			Confidence:      r.Confidence,
			Timeframe:       r.Timeframe,
			Reasoning:       r.Reasoning,
			EntryTiming:     r.EntryTiming,
			ExitStrategy:    r.ExitStrategy,
		},
		ID:               r.ID,
		StartDate:        r.StartDate,
		CreatedAt:        r.CreatedAt,
		EvaluationWindow: r.EvaluationWindow,
		BacktestStatus:   models.BacktestStatus(r.BacktestStatus),
		Outcome:          models.Outcome(r.Outcome.String),
	}

	if err := unmarshalJSONB(r.EarlySignals, &rec.EarlySignals); err != nil {
		return nil, fmt.Errorf("early_signals: %w", err)
	}
	if err := unmarshalJSONB(r.RecommendedStocks, &rec.RecommendedStocks); err != nil {
		return nil, fmt.Errorf("recommended_stocks: %w", err)
	}

	prices := map[string]decimal.Decimal{}
	if err := unmarshalJSONB(r.InitialPrices, &prices); err != nil {
		return nil, fmt.Errorf("initial_prices: %w", err)
	}
	rec.InitialPrices = models.PricesFromDecimal(prices)

	if r.Performance.Valid {
		perf := r.Performance.String
		rec.Performance = &perf
	}
	if r.EvaluatedAt.Valid {
		at := r.EvaluatedAt.Time
		rec.EvaluatedAt = &at
	}

	return rec, nil
}

func unmarshalJSONB(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Insert stores a new record inside one transaction so the price snapshot is
// written together with the prediction
func (r *PostgresRepository) Insert(ctx context.Context, rec *models.PredictionRecord) error {
	earlySignals, err := json.Marshal(nonNil(rec.EarlySignals))
	if err != nil {
		return fmt.Errorf("failed to marshal early signals: %w", err)
	}
	stocks, err := json.Marshal(nonNil(rec.RecommendedStocks))
	if err != nil {
		return fmt.Errorf("failed to marshal recommended stocks: %w", err)
	}
	prices, err := json.Marshal(models.PricesToDecimal(rec.InitialPrices))
	if err != nil {
		return fmt.Errorf("failed to marshal initial prices: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO predictions (
			id, sector, opportunity_type, direction, confidence, timeframe,
			early_signals, recommended_stocks, reasoning, entry_timing, exit_strategy,
			start_date, evaluation_window, initial_prices, backtest_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		rec.ID, rec.Sector, rec.OpportunityType, rec.Direction, rec.Confidence, rec.Timeframe,
		earlySignals, stocks, rec.Reasoning, rec.EntryTiming, rec.ExitStrategy,
		rec.StartDate, rec.EvaluationWindow, prices, rec.BacktestStatus, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prediction: %w", err)
	}

	return nil
}

// Get returns one record
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.PredictionRecord, error) {
	var row predictionRow
	err := r.db.GetContext(ctx, &row, `SELECT `+predictionColumns+` FROM predictions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction %s: %w", id, err)
	}

	return row.toRecord()
}

// ListPending returns records awaiting evaluation, oldest first. A row that
// cannot be decoded is completed as neutral with "N/A" performance and left
// out, so it cannot block the rest of the batch on later passes.
func (r *PostgresRepository) ListPending(ctx context.Context) ([]*models.PredictionRecord, error) {
	var rows []predictionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+predictionColumns+`
		FROM predictions
		WHERE backtest_status = 'pending'
		ORDER BY start_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending predictions: %w", err)
	}

	out := make([]*models.PredictionRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toRecord()
		if err != nil {
			r.discard(ctx, rows[i].ID, err)
			continue
		}
		out = append(out, rec)
	}

	return out, nil
}

func (r *PostgresRepository) discard(ctx context.Context, id string, decodeErr error) {
	r.log.Error("undecodable pending prediction, forcing neutral",
		zap.String("prediction_id", id),
		zap.Error(models.NewPipelineError(models.ErrEvaluation, "decode prediction", decodeErr)),
	)

	if _, err := r.CompleteEvaluation(ctx, id, models.OutcomeNeutral, "N/A", r.now().UTC()); err != nil {
		r.log.Error("failed to complete undecodable prediction", zap.String("prediction_id", id), zap.Error(err))
	}
}

// CompleteEvaluation marks a pending record completed. The status guard makes
// a second completion of the same record a no-op.
func (r *PostgresRepository) CompleteEvaluation(ctx context.Context, id string, outcome models.Outcome, performance string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE predictions
		SET backtest_status = 'completed',
		    prediction_outcome = $2,
		    performance = $3,
		    evaluated_at = $4
		WHERE id = $1 AND backtest_status = 'pending'
	`, id, string(outcome), performance, at)
	if err != nil {
		return false, fmt.Errorf("failed to complete prediction %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return n == 1, nil
}

// ListRecentNews returns analyzed news, newest first
func (r *PostgresRepository) ListRecentNews(ctx context.Context, limit int) ([]models.NewsSignal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, summary, source, url, sentiment, rally_indicator,
		       sectors, mentioned_stocks, published_at
		FROM news_signals
		WHERE sentiment IS NOT NULL AND btrim(summary) <> ''
		ORDER BY published_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent news: %w", err)
	}
	defer rows.Close()

	news := make([]models.NewsSignal, 0, limit)
	for rows.Next() {
		var n models.NewsSignal
		var sentiment, indicator string
		var sectors, stocks pq.StringArray

		if err := rows.Scan(
			&n.ID, &n.Title, &n.Summary, &n.Source, &n.URL, &sentiment, &indicator,
			&sectors, &stocks, &n.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan news signal: %w", err)
		}

		n.Sentiment = models.Sentiment(sentiment)
		n.RallyIndicator = models.RallyIndicator(indicator)
		n.Sectors = []string(sectors)
		n.MentionedStocks = []string(stocks)
		news = append(news, n)
	}

	return news, rows.Err()
}

// ListHistoricalRallies returns reference rallies
func (r *PostgresRepository) ListHistoricalRallies(ctx context.Context) ([]models.HistoricalRally, error) {
	var rallies []models.HistoricalRally
	err := r.db.SelectContext(ctx, &rallies, `
		SELECT id, sector, is_historical, catalysts, early_signals, performance, timeframe, start_date
		FROM historical_rallies
		WHERE is_historical
		ORDER BY start_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list historical rallies: %w", err)
	}

	return rallies, nil
}

// SaveNewsSignals upserts analyzed news. Used to seed the store from the
// ingestion layer's exports.
func (r *PostgresRepository) SaveNewsSignals(ctx context.Context, news []models.NewsSignal) (int, error) {
	if len(news) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO news_signals (
			id, title, summary, source, url, sentiment, rally_indicator,
			sectors, mentioned_stocks, published_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			summary = EXCLUDED.summary,
			sentiment = EXCLUDED.sentiment,
			rally_indicator = EXCLUDED.rally_indicator,
			sectors = EXCLUDED.sectors,
			mentioned_stocks = EXCLUDED.mentioned_stocks
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for i := range news {
		n := &news[i]
		indicator := n.RallyIndicator
		if indicator == "" {
			indicator = models.RallyNone
		}
		if _, err := stmt.ExecContext(ctx,
			n.ID, n.Title, n.Summary, n.Source, n.URL, string(n.Sentiment), string(indicator),
			pq.Array(nonNil(n.Sectors)), pq.Array(nonNil(n.MentionedStocks)), n.PublishedAt,
		); err != nil {
			return saved, fmt.Errorf("failed to save news %s: %w", n.ID, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit news: %w", err)
	}

	return saved, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
