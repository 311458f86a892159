package forecast

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/rally-radar/pkg/models"
)

type fakeSource struct {
	news    []models.NewsSignal
	rallies []models.HistoricalRally
	err     error
	limit   int
}

func (f *fakeSource) ListRecentNews(_ context.Context, limit int) ([]models.NewsSignal, error) {
	f.limit = limit
	return f.news, f.err
}

func (f *fakeSource) ListHistoricalRallies(context.Context) ([]models.HistoricalRally, error) {
	return f.rallies, nil
}

type fakeAcceptor struct {
	fail     map[string]bool
	accepted []models.RallyPrediction
}

func (f *fakeAcceptor) Accept(_ context.Context, p models.RallyPrediction) (*models.PredictionRecord, error) {
	if f.fail[p.Sector] {
		return nil, errors.New("insert failed")
	}
	f.accepted = append(f.accepted, p)
	return models.NewPredictionRecord(p, fixedNow, nil), nil
}

type countingNotifier struct{ n int }

func (c *countingNotifier) NotifyPrediction(context.Context, *models.PredictionRecord) error {
	c.n++
	return errors.New("telegram down")
}

func TestService_Execute(t *testing.T) {
	semis := aiCall(55)
	semis["sector"] = "Semiconductors"

	r := &fakeReasoner{}
	r.response = response(t, aiCall(70), semis)
	source := &fakeSource{
		news: aiNews(12),
		rallies: []models.HistoricalRally{
			{Sector: "AI", Catalysts: `["ChatGPT launch"]`, Timeframe: "3 months", IsHistorical: true},
		},
	}
	store := &fakeAcceptor{fail: map[string]bool{"Semiconductors": true}}
	notifier := &countingNotifier{}

	svc := NewService(source, newTestOrchestrator(t, r), store, 100, notifier)
	summary, err := svc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 100, source.limit)
	require.Len(t, summary.Accepted, 1)
	assert.Equal(t, "AI", summary.Accepted[0].Sector)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, notifier.n)
	assert.Contains(t, r.user, "HISTORICAL RALLY PATTERNS")
}

func TestService_NoPredictionsIsNotAnError(t *testing.T) {
	r := &fakeReasoner{}
	store := &fakeAcceptor{}
	svc := NewService(&fakeSource{news: aiNews(3)}, newTestOrchestrator(t, r), store, 100)

	require.NoError(t, svc.Run(context.Background()))
	assert.Zero(t, r.calls)
	assert.Empty(t, store.accepted)
}

func TestService_SourceError(t *testing.T) {
	svc := NewService(&fakeSource{err: errors.New("db down")}, newTestOrchestrator(t, &fakeReasoner{}), &fakeAcceptor{}, 100)

	assert.Error(t, svc.Run(context.Background()))
	assert.Equal(t, "forecast", svc.Name())
}
