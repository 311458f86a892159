package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRallyPrediction_Window(t *testing.T) {
	testCases := []struct {
		timeframe string
		expected  string
	}{
		{Timeframe2to3Weeks, "3 weeks"},
		{Timeframe1to2Months, "2 months"},
		{Timeframe3to6Months, "6 months"},
		{"10 days", "10 days"},
	}

	for _, tc := range testCases {
		t.Run(tc.timeframe, func(t *testing.T) {
			p := RallyPrediction{Timeframe: tc.timeframe}
			assert.Equal(t, tc.expected, p.Window())
		})
	}
}

func TestNewPredictionRecord(t *testing.T) {
	prices := map[string]float64{"NVDA": 140}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	rec := NewPredictionRecord(RallyPrediction{Timeframe: Timeframe2to3Weeks}, start, prices)
	prices["NVDA"] = 1

	_, err := uuid.Parse(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, BacktestPending, rec.BacktestStatus)
	assert.Equal(t, OutcomeNone, rec.Outcome)
	assert.Nil(t, rec.Performance)
	assert.Equal(t, 140.0, rec.InitialPrices["NVDA"])
	assert.Equal(t, "3 weeks", rec.Window())

	rec.EvaluationWindow = ""
	assert.Equal(t, "3 weeks", rec.Window())
}

func TestPipelineError_Is(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("wrapped: %w", NewPipelineError(ErrUpstreamFailure, "forecast.generate", cause))

	assert.ErrorIs(t, err, ErrUpstreamFailure)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInsufficientData)

	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "forecast.generate", pe.Op)
	assert.Equal(t, "forecast.generate: insufficient data", NewPipelineError(ErrInsufficientData, "forecast.generate", nil).Error())
}

func TestNewsSignal_Helpers(t *testing.T) {
	n := NewsSignal{Sentiment: SentimentBullish, Summary: "x", Sectors: []string{"AI "}, RallyIndicator: RallyModerate}
	assert.True(t, n.IsAnalyzed())
	assert.True(t, n.HasSector("ai"))
	assert.True(t, n.IsRallySignal())

	n.Summary = "  "
	assert.False(t, n.IsAnalyzed())
	assert.False(t, (&NewsSignal{Summary: "x"}).IsAnalyzed())
}

func TestDirectionFor(t *testing.T) {
	assert.Equal(t, DirectionUp, DirectionFor(OpportunityCall))
	assert.Equal(t, DirectionDown, DirectionFor(OpportunityPut))
}

func TestParseWindow(t *testing.T) {
	testCases := []struct {
		input string
		n     int
		unit  WindowUnit
		ok    bool
	}{
		{"3 weeks", 3, UnitWeek, true},
		{"1 week", 1, UnitWeek, true},
		{"2 Months", 2, UnitMonth, true},
		{"10 days", 10, UnitDay, true},
		{"6months", 6, UnitMonth, true},
		{"0 days", 0, "", false},
		{"2-3 weeks", 0, "", false},
		{"soon", 0, "", false},
		{"", 0, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			n, unit, ok := ParseWindow(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.n, n)
			assert.Equal(t, tc.unit, unit)
		})
	}
}

func TestAddWindow(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC), AddWindow(start, 3, UnitWeek))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), AddWindow(start, 2, UnitMonth))
	assert.Equal(t, time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC), AddWindow(start, 10, UnitDay))

	days, ok := WindowDays("2 months")
	assert.True(t, ok)
	assert.Equal(t, 60, days)
}

func TestPricesDecimalRoundTrip(t *testing.T) {
	prices := map[string]float64{"NVDA": 120.55, "AMD": 160}

	stored := PricesToDecimal(prices)
	assert.Equal(t, "120.55", stored["NVDA"].String())
	assert.True(t, NewDecimal(160).Equal(stored["AMD"]))

	assert.Equal(t, prices, PricesFromDecimal(stored))
	assert.Equal(t, 1.23, Round2(1.2345))
}
