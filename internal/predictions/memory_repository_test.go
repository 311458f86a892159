package predictions

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/rally-radar/pkg/models"
)

func TestMemoryRepository_CompleteOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	rec := models.NewPredictionRecord(prediction(), time.Now(), map[string]float64{"NVDA": 100})
	require.NoError(t, repo.Insert(ctx, rec))

	var completed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.CompleteEvaluation(ctx, rec.ID, models.OutcomeSuccess, "5.00%", time.Now())
			assert.NoError(t, err)
			if ok {
				completed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), completed.Load())

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted())
	assert.Equal(t, models.OutcomeSuccess, got.Outcome)
	require.NotNil(t, got.Performance)
	assert.Equal(t, "5.00%", *got.Performance)

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMemoryRepository_GetUnknown(t *testing.T) {
	_, err := NewMemoryRepository().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_ListPendingOldestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	newer := models.NewPredictionRecord(prediction(), base.AddDate(0, 0, 2), nil)
	older := models.NewPredictionRecord(prediction(), base, nil)
	require.NoError(t, repo.Insert(ctx, newer))
	require.NoError(t, repo.Insert(ctx, older))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, older.ID, pending[0].ID)
	assert.Equal(t, newer.ID, pending[1].ID)
}

func TestMemoryRepository_ListRecentNews(t *testing.T) {
	repo := NewMemoryRepository()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.AddNews(
		models.NewsSignal{ID: "old", Summary: "s", Sentiment: models.SentimentBullish, PublishedAt: base},
		models.NewsSignal{ID: "raw", Summary: "", Sentiment: models.SentimentBullish, PublishedAt: base.Add(time.Hour)},
		models.NewsSignal{ID: "new", Summary: "s", Sentiment: models.SentimentNeutral, PublishedAt: base.Add(2 * time.Hour)},
	)
	repo.AddRallies(
		models.HistoricalRally{ID: "r1", Sector: "AI", IsHistorical: true},
		models.HistoricalRally{ID: "r2", Sector: "AI"},
	)

	news, err := repo.ListRecentNews(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, news, 2)
	assert.Equal(t, "new", news[0].ID)
	assert.Equal(t, "old", news[1].ID)

	rallies, err := repo.ListHistoricalRallies(context.Background())
	require.NoError(t, err)
	require.Len(t, rallies, 1)
	assert.Equal(t, "r1", rallies[0].ID)
}
