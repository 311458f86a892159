package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/models"
)

const createOutcomesTable = `
	CREATE TABLE IF NOT EXISTS prediction_outcomes (
		prediction_id    String,
		sector           LowCardinality(String),
		opportunity_type LowCardinality(String),
		direction        LowCardinality(String),
		confidence       UInt8,
		tickers          Array(String),
		priced_tickers   UInt16,
		avg_return       Nullable(Float64),
		outcome          LowCardinality(String),
		performance      String,
		forced           UInt8,
		start_date       DateTime64(3),
		evaluated_at     DateTime64(3)
	) ENGINE = ReplacingMergeTree(evaluated_at)
	ORDER BY (sector, prediction_id)
`

// Repository handles ClickHouse outcome analytics
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new ClickHouse repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the outcomes table if missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createOutcomesTable); err != nil {
		return fmt.Errorf("failed to create prediction_outcomes: %w", err)
	}
	return nil
}

// SaveOutcomes inserts evaluated outcomes in one batch
func (r *Repository) SaveOutcomes(ctx context.Context, events []models.OutcomeEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO prediction_outcomes
		(prediction_id, sector, opportunity_type, direction, confidence, tickers, priced_tickers,
		 avg_return, outcome, performance, forced, start_date, evaluated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		forced := uint8(0)
		if ev.Forced {
			forced = 1
		}
		_, err = stmt.ExecContext(ctx,
			ev.PredictionID,
			ev.Sector,
			string(ev.OpportunityType),
			string(ev.Direction),
			uint8(ev.Confidence),
			ev.Tickers,
			uint16(ev.PricedTickers),
			ev.AvgReturn,
			string(ev.Outcome),
			ev.Performance,
			forced,
			ev.StartDate,
			ev.EvaluatedAt,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert outcome %s: %w", ev.PredictionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("saved outcomes to ClickHouse", zap.Int("count", len(events)))

	return nil
}

// SectorHitRate is the share of successful outcomes per sector
type SectorHitRate struct {
	Sector    string  `db:"sector"`
	Total     uint64  `db:"total"`
	Successes uint64  `db:"successes"`
	AvgReturn float64 `db:"avg_return"`
}

// HitRates aggregates outcomes per sector, optionally restricted to sectors
func (r *Repository) HitRates(ctx context.Context, sectors ...string) ([]SectorHitRate, error) {
	query := `
		SELECT sector,
		       count() AS total,
		       countIf(outcome = 'success') AS successes,
		       ifNull(avg(avg_return), 0) AS avg_return
		FROM prediction_outcomes FINAL`

	var args []interface{}
	if len(sectors) > 0 {
		query += ` WHERE sector IN (?` + strings.Repeat(", ?", len(sectors)-1) + `)`
		for _, s := range sectors {
			args = append(args, s)
		}
	}
	query += ` GROUP BY sector ORDER BY sector`

	var out []SectorHitRate
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query hit rates: %w", err)
	}
	return out, nil
}
