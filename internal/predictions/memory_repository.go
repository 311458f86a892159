package predictions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/selivandex/rally-radar/pkg/models"
)

// MemoryRepository is an in-process Repository for tests and dry runs
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*models.PredictionRecord
	news    []models.NewsSignal
	rallies []models.HistoricalRally
}

// NewMemoryRepository creates new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]*models.PredictionRecord)}
}

// AddNews seeds news signals
func (m *MemoryRepository) AddNews(news ...models.NewsSignal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.news = append(m.news, news...)
}

// AddRallies seeds historical rallies
func (m *MemoryRepository) AddRallies(rallies ...models.HistoricalRally) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rallies = append(m.rallies, rallies...)
}

// Insert stores a copy of rec
func (m *MemoryRepository) Insert(_ context.Context, rec *models.PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = cloneRecord(rec)
	return nil
}

// Get returns a copy of the record
func (m *MemoryRepository) Get(_ context.Context, id string) (*models.PredictionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// ListPending returns pending records, oldest first
func (m *MemoryRepository) ListPending(_ context.Context) ([]*models.PredictionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.PredictionRecord, 0)
	for _, rec := range m.records {
		if !rec.IsCompleted() {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out, nil
}

// CompleteEvaluation completes a pending record once
func (m *MemoryRepository) CompleteEvaluation(_ context.Context, id string, outcome models.Outcome, performance string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok || rec.IsCompleted() {
		return false, nil
	}

	rec.BacktestStatus = models.BacktestCompleted
	rec.Outcome = outcome
	rec.Performance = &performance
	evaluatedAt := at
	rec.EvaluatedAt = &evaluatedAt
	return true, nil
}

// ListRecentNews returns analyzed news, newest first
func (m *MemoryRepository) ListRecentNews(_ context.Context, limit int) ([]models.NewsSignal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.NewsSignal, 0, len(m.news))
	for i := range m.news {
		if m.news[i].IsAnalyzed() {
			out = append(out, m.news[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListHistoricalRallies returns seeded rallies flagged historical
func (m *MemoryRepository) ListHistoricalRallies(_ context.Context) ([]models.HistoricalRally, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.HistoricalRally, 0, len(m.rallies))
	for _, r := range m.rallies {
		if r.IsHistorical {
			out = append(out, r)
		}
	}
	return out, nil
}

func cloneRecord(rec *models.PredictionRecord) *models.PredictionRecord {
	c := *rec
	c.EarlySignals = append([]string(nil), rec.EarlySignals...)
	c.RecommendedStocks = append([]string(nil), rec.RecommendedStocks...)
	c.InitialPrices = make(map[string]float64, len(rec.InitialPrices))
	for k, v := range rec.InitialPrices {
		c.InitialPrices[k] = v
	}
	if rec.Performance != nil {
		p := *rec.Performance
		c.Performance = &p
	}
	if rec.EvaluatedAt != nil {
		at := *rec.EvaluatedAt
		c.EvaluatedAt = &at
	}
	return &c
}
