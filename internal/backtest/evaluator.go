package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/internal/adapters/market"
	"github.com/selivandex/rally-radar/internal/adapters/redis"
	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/models"
)

// Repository is the persistence the evaluator needs
type Repository interface {
	ListPending(ctx context.Context) ([]*models.PredictionRecord, error)
	CompleteEvaluation(ctx context.Context, id string, outcome models.Outcome, performance string, at time.Time) (bool, error)
}

// Sink receives an event for every record the evaluator completes
type Sink interface {
	Name() string
	RecordOutcome(ctx context.Context, ev models.OutcomeEvent) error
}

// Evaluation is the scored result of one record
type Evaluation struct {
	Outcome       models.Outcome
	Performance   string
	AvgReturn     *float64
	PricedTickers int
	Forced        bool
	Err           error
}

// Summary reports one pass over the pending records
type Summary struct {
	Pending          int
	Evaluated        int
	Waiting          int
	AlreadyCompleted int
	Errors           int
	Outcomes         map[models.Outcome]int
	LockHeld         bool
}

// Evaluator scores pending predictions once their window has elapsed
type Evaluator struct {
	repo      Repository
	quotes    market.QuoteProvider
	lock      redis.RunLock
	sinks     []Sink
	threshold float64
	now       func() time.Time
	log       *zap.Logger
}

// NewEvaluator creates new evaluator. A nil lock disables run locking.
func NewEvaluator(repo Repository, quotes market.QuoteProvider, lock redis.RunLock, threshold float64, sinks ...Sink) *Evaluator {
	if lock == nil {
		lock = redis.NoopLock{}
	}
	if threshold <= 0 {
		threshold = DefaultSuccessThreshold
	}
	return &Evaluator{
		repo:      repo,
		quotes:    quotes,
		lock:      lock,
		sinks:     sinks,
		threshold: threshold,
		now:       time.Now,
		log:       logger.Named("backtest"),
	}
}

// Name returns worker name
func (e *Evaluator) Name() string {
	return "backtest"
}

// Run executes one evaluation pass
func (e *Evaluator) Run(ctx context.Context) error {
	_, err := e.RunPending(ctx)
	return err
}

// EvaluateRecord scores rec as of now. ready is false when the record is
// already completed, its window cannot be parsed, or the window has not
// elapsed; such records stay pending.
func (e *Evaluator) EvaluateRecord(ctx context.Context, rec *models.PredictionRecord, now time.Time) (ev Evaluation, ready bool) {
	if rec.IsCompleted() {
		return Evaluation{}, false
	}

	due, ok := EvaluationDate(rec.StartDate, rec.Window())
	if !ok {
		e.log.Warn("unparseable evaluation window, leaving pending",
			zap.String("id", rec.ID),
			zap.String("window", rec.Window()),
		)
		return Evaluation{}, false
	}
	if now.Before(due) {
		return Evaluation{}, false
	}

	defer func() {
		if r := recover(); r != nil {
			ev = forcedNeutral(models.NewPipelineError(models.ErrEvaluation, "backtest.evaluate", fmt.Errorf("panic: %v", r)))
			ready = true
		}
	}()

	ev, err := e.score(ctx, rec)
	if err != nil {
		return forcedNeutral(models.NewPipelineError(models.ErrEvaluation, "backtest.evaluate", err)), true
	}
	return ev, true
}

func (e *Evaluator) score(ctx context.Context, rec *models.PredictionRecord) (Evaluation, error) {
	priced := make([]string, 0, len(rec.RecommendedStocks))
	for _, t := range rec.RecommendedStocks {
		if _, ok := rec.InitialPrices[t]; ok {
			priced = append(priced, t)
		}
	}
	if len(priced) == 0 || e.quotes == nil {
		return neutral(), nil
	}

	quotes, err := e.quotes.GetQuotes(ctx, priced)
	if err != nil {
		e.log.Debug("partial quotes for evaluation", zap.String("id", rec.ID), zap.Error(err))
	}

	initial := make(map[string]float64, len(priced))
	current := make(map[string]float64, len(quotes))
	for _, t := range priced {
		initial[t] = rec.InitialPrices[t]
		if q, ok := quotes[t]; ok && q != nil {
			current[t] = q.Price
		}
	}

	avg, n := AverageReturn(initial, current)
	if n == 0 {
		return neutral(), nil
	}
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return Evaluation{}, fmt.Errorf("non-finite average return over %d tickers", n)
	}

	return Evaluation{
		Outcome:       Classify(avg, rec.Direction == models.DirectionUp, e.threshold),
		Performance:   FormatPerformance(avg),
		AvgReturn:     &avg,
		PricedTickers: n,
	}, nil
}

func neutral() Evaluation {
	return Evaluation{Outcome: models.OutcomeNeutral, Performance: "N/A"}
}

func forcedNeutral(err error) Evaluation {
	ev := neutral()
	ev.Forced = true
	ev.Err = err
	return ev
}

// RunPending evaluates every pending record that is due. Records are
// independent: one failure does not stop the pass. When another process holds
// the run lock the pass is a no-op.
func (e *Evaluator) RunPending(ctx context.Context) (*Summary, error) {
	summary := &Summary{Outcomes: make(map[models.Outcome]int)}

	acquired, err := e.lock.TryAcquire(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to acquire backtest lock: %w", err)
	}
	if !acquired {
		summary.LockHeld = true
		e.log.Info("backtest already running elsewhere, skipping")
		return summary, nil
	}
	defer func() {
		if err := e.lock.Release(context.WithoutCancel(ctx)); err != nil {
			e.log.Warn("failed to release backtest lock", zap.Error(err))
		}
	}()

	pending, err := e.repo.ListPending(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list pending predictions: %w", err)
	}
	summary.Pending = len(pending)

	for _, rec := range pending {
		if ctx.Err() != nil {
			break
		}

		now := e.now().UTC()
		ev, ready := e.EvaluateRecord(ctx, rec, now)
		if !ready {
			summary.Waiting++
			continue
		}
		if ev.Err != nil {
			e.log.Error("evaluation failed, forcing neutral", zap.String("id", rec.ID), zap.Error(ev.Err))
		}

		completed, err := e.repo.CompleteEvaluation(ctx, rec.ID, ev.Outcome, ev.Performance, now)
		if err != nil {
			summary.Errors++
			e.log.Error("failed to store evaluation", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		if !completed {
			summary.AlreadyCompleted++
			continue
		}

		summary.Evaluated++
		summary.Outcomes[ev.Outcome]++
		e.emit(ctx, e.event(rec, ev, now))
	}

	e.log.Info("backtest pass completed",
		zap.Int("pending", summary.Pending),
		zap.Int("evaluated", summary.Evaluated),
		zap.Int("waiting", summary.Waiting),
		zap.Int("errors", summary.Errors),
		zap.Int("success", summary.Outcomes[models.OutcomeSuccess]),
		zap.Int("failure", summary.Outcomes[models.OutcomeFailure]),
		zap.Int("neutral", summary.Outcomes[models.OutcomeNeutral]),
	)

	return summary, nil
}

func (e *Evaluator) event(rec *models.PredictionRecord, ev Evaluation, at time.Time) models.OutcomeEvent {
	tickers := make([]string, 0, len(rec.RecommendedStocks))
	tickers = append(tickers, rec.RecommendedStocks...)
	sort.Strings(tickers)

	return models.OutcomeEvent{
		PredictionID:    rec.ID,
		Sector:          rec.Sector,
		OpportunityType: rec.OpportunityType,
		Direction:       rec.Direction,
		Confidence:      rec.Confidence,
		Tickers:         tickers,
		StartDate:       rec.StartDate,
		EvaluatedAt:     at,
		Outcome:         ev.Outcome,
		Performance:     ev.Performance,
		AvgReturn:       ev.AvgReturn,
		PricedTickers:   ev.PricedTickers,
		Forced:          ev.Forced,
	}
}

func (e *Evaluator) emit(ctx context.Context, ev models.OutcomeEvent) {
	for _, s := range e.sinks {
		if err := s.RecordOutcome(ctx, ev); err != nil {
			e.log.Warn("outcome sink failed",
				zap.String("sink", s.Name()),
				zap.String("id", ev.PredictionID),
				zap.Error(err),
			)
		}
	}
}
