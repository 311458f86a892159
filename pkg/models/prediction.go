package models

import (
	"time"

	"github.com/google/uuid"
)

// OpportunityType is the option side of a trade idea
type OpportunityType string

const (
	OpportunityCall OpportunityType = "call"
	OpportunityPut  OpportunityType = "put"
)

// Direction is the expected move of the underlying
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// DirectionFor returns the direction implied by an opportunity type
func DirectionFor(t OpportunityType) Direction {
	if t == OpportunityPut {
		return DirectionDown
	}
	return DirectionUp
}

// Supported forecast timeframes
const (
	Timeframe2to3Weeks  = "2-3 weeks"
	Timeframe1to2Months = "1-2 months"
	Timeframe3to6Months = "3-6 months"
)

// Timeframes lists the timeframes the forecaster may emit
var Timeframes = []string{Timeframe2to3Weeks, Timeframe1to2Months, Timeframe3to6Months}

// BacktestStatus is the evaluation state of a stored prediction
type BacktestStatus string

const (
	BacktestPending   BacktestStatus = "pending"
	BacktestCompleted BacktestStatus = "completed"
)

// Outcome is the terminal label assigned by the evaluator
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeNeutral Outcome = "neutral"
)

// RallyPrediction is a forecast candidate as returned by the reasoning service
type RallyPrediction struct {
	Sector            string          `json:"sector" validate:"required"`
	OpportunityType   OpportunityType `json:"opportunityType" validate:"required,oneof=call put"`
	Direction         Direction       `json:"direction" validate:"omitempty,oneof=up down"`
	Confidence        int             `json:"confidence" validate:"gte=0,lte=100"`
	Timeframe         string          `json:"timeframe"`
	EarlySignals      []string        `json:"earlySignals"`
	RecommendedStocks []string        `json:"recommendedStocks" validate:"required,min=1,dive,required"`
	Reasoning         string          `json:"reasoning"`
	EntryTiming       string          `json:"entryTiming"`
	ExitStrategy      string          `json:"exitStrategy"`
}

// Window maps the forecast timeframe to the duration string the evaluator
// waits before scoring ("<N> day|week|month(s)"). Unknown timeframes pass through.
func (p *RallyPrediction) Window() string {
	switch p.Timeframe {
	case Timeframe2to3Weeks:
		return "3 weeks"
	case Timeframe1to2Months:
		return "2 months"
	case Timeframe3to6Months:
		return "6 months"
	default:
		return p.Timeframe
	}
}

// PrimaryTicker returns the first recommended stock, or "" when there is none
func (p *RallyPrediction) PrimaryTicker() string {
	if len(p.RecommendedStocks) == 0 {
		return ""
	}
	return p.RecommendedStocks[0]
}

// PredictionRecord is a persisted prediction with its evaluation state
type PredictionRecord struct {
	RallyPrediction

	StartDate        time.Time          `json:"startDate"`
	CreatedAt        time.Time          `json:"createdAt"`
	EvaluatedAt      *time.Time         `json:"evaluatedAt,omitempty"`
	Performance      *string            `json:"performance"`
	InitialPrices    map[string]float64 `json:"initialPrices"`
	ID               string             `json:"id"`
	EvaluationWindow string             `json:"evaluationWindow"`
	BacktestStatus   BacktestStatus     `json:"backtestStatus"`
	Outcome          Outcome            `json:"predictionOutcome"`
}

// NewPredictionRecord creates a pending record starting at startDate. The
// price snapshot is copied so later mutation of prices does not leak in.
func NewPredictionRecord(p RallyPrediction, startDate time.Time, prices map[string]float64) *PredictionRecord {
	snapshot := make(map[string]float64, len(prices))
	for ticker, price := range prices {
		snapshot[ticker] = price
	}

	return &PredictionRecord{
		RallyPrediction:  p,
		ID:               uuid.NewString(),
		StartDate:        startDate,
		CreatedAt:        startDate,
		InitialPrices:    snapshot,
		EvaluationWindow: p.Window(),
		BacktestStatus:   BacktestPending,
		Outcome:          OutcomeNone,
	}
}

// Window returns the stored evaluation window, deriving it from the timeframe when absent
func (r *PredictionRecord) Window() string {
	if r.EvaluationWindow != "" {
		return r.EvaluationWindow
	}
	return r.RallyPrediction.Window()
}

// IsCompleted reports whether the record has reached its terminal state
func (r *PredictionRecord) IsCompleted() bool {
	return r.BacktestStatus == BacktestCompleted
}

// OutcomeEvent is emitted once when a prediction reaches its terminal state
type OutcomeEvent struct {
	StartDate       time.Time       `json:"startDate"`
	EvaluatedAt     time.Time       `json:"evaluatedAt"`
	AvgReturn       *float64        `json:"avgReturn,omitempty"`
	PredictionID    string          `json:"predictionId"`
	Sector          string          `json:"sector"`
	OpportunityType OpportunityType `json:"opportunityType"`
	Direction       Direction       `json:"direction"`
	Outcome         Outcome         `json:"outcome"`
	Performance     string          `json:"performance"`
	Tickers         []string        `json:"tickers"`
	Confidence      int             `json:"confidence"`
	PricedTickers   int             `json:"pricedTickers"`
	Forced          bool            `json:"forced"`
}
