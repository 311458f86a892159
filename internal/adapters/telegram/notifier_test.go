package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/rally-radar/pkg/models"
	"github.com/selivandex/rally-radar/pkg/templates"
)

type recordingSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if r.err != nil {
		return tgbotapi.Message{}, r.err
	}
	r.sent = append(r.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func newTestNotifier(t *testing.T, s Sender) *Notifier {
	t.Helper()
	tmpl, err := templates.Builtin(templates.SetTelegram)
	require.NoError(t, err)
	return NewNotifierWithSender(s, 42, tmpl)
}

func TestNotifier_NotifyPrediction(t *testing.T) {
	sender := &recordingSender{}
	n := newTestNotifier(t, sender)

	rec := models.NewPredictionRecord(models.RallyPrediction{
		Sector:            "AI",
		OpportunityType:   models.OpportunityCall,
		Direction:         models.DirectionUp,
		Confidence:        72,
		Timeframe:         models.Timeframe2to3Weeks,
		RecommendedStocks: []string{"NVDA", "AMD"},
		Reasoning:         "Data center demand keeps surprising.",
	}, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), map[string]float64{"NVDA": 140.5})

	require.NoError(t, n.NotifyPrediction(context.Background(), rec))
	require.Len(t, sender.sent, 1)

	text := sender.sent[0].Text
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
	assert.Contains(t, text, "AI call (up)")
	assert.Contains(t, text, "NVDA @ $140.50")
	assert.Contains(t, text, "Evaluation in 3 weeks")
}

func TestNotifier_RecordOutcome(t *testing.T) {
	sender := &recordingSender{}
	n := newTestNotifier(t, sender)

	err := n.RecordOutcome(context.Background(), models.OutcomeEvent{
		PredictionID:    "p1",
		Sector:          "AI",
		OpportunityType: models.OpportunityCall,
		Outcome:         models.OutcomeSuccess,
		Performance:     "4.20%",
		Tickers:         []string{"NVDA", "AMD"},
		PricedTickers:   2,
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "-> success")
	assert.Contains(t, sender.sent[0].Text, "4.20% across 2 of 2")
}

func TestNotifier_SendError(t *testing.T) {
	n := newTestNotifier(t, &recordingSender{err: errors.New("forbidden")})
	err := n.RecordOutcome(context.Background(), models.OutcomeEvent{Forced: true})
	assert.ErrorContains(t, err, "forbidden")
}
