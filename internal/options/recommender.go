package options

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/internal/adapters/ai"
	"github.com/selivandex/rally-radar/internal/adapters/market"
	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/models"
	"github.com/selivandex/rally-radar/pkg/templates"
)

const narrationTemplate = "options_narration.tmpl"

// NarrationSchema is the structured output requested for the narration step
var NarrationSchema = &ai.Schema{
	Name: "option_narration",
	Type: ai.TypeObject,
	Properties: map[string]*ai.Schema{
		"strategy": ai.String(),
		"entry":    ai.String(),
		"exit":     ai.String(),
		"risk":     ai.String(),
	},
	Required: []string{"strategy", "entry", "exit", "risk"},
}

type narration struct {
	Strategy string `json:"strategy"`
	Entry    string `json:"entry"`
	Exit     string `json:"exit"`
	Risk     string `json:"risk"`
}

type narrationData struct {
	Direction           models.Direction
	Ticker              string
	Sector              string
	Confidence          int
	Timeframe           string
	Reasoning           string
	Expiration          string
	Strike              float64
	Type                models.OpportunityType
	DaysToExpiration    int
	CurrentPrice        float64
	Premium             float64
	Cost                float64
	BreakEven           float64
	ProbabilityOfProfit int
	HasDelta            bool
	Delta               float64
	Theta               float64
	ImpliedVolatility   float64
	OpenInterest        int64
	EntryTiming         string
	ExitStrategy        string
}

// Recommender turns a prediction into a concrete option contract
type Recommender struct {
	market    market.DataProvider
	reasoner  ai.Reasoner
	templates templates.Renderer
	policy    Policy
	log       *zap.Logger
}

// NewRecommender creates new recommender. reasoner and tmpl may be nil, in
// which case narration uses the built-in text.
func NewRecommender(data market.DataProvider, reasoner ai.Reasoner, tmpl templates.Renderer, policy Policy) *Recommender {
	return &Recommender{
		market:    data,
		reasoner:  reasoner,
		templates: tmpl,
		policy:    policy,
		log:       logger.Named("options"),
	}
}

// Recommend selects a contract for rec's primary ticker. It never fails:
// missing market data yields a numbers-free recommendation with LiveData unset.
func (r *Recommender) Recommend(ctx context.Context, rec *models.PredictionRecord) models.OptionRecommendation {
	ticker := rec.PrimaryTicker()
	if ticker == "" {
		return r.fallback(rec, "no ticker recommended")
	}

	quote, err := r.market.GetQuote(ctx, ticker)
	if err != nil || quote == nil || quote.Price <= 0 {
		return r.fallback(rec, fmt.Sprintf("quote unavailable: %v", err))
	}
	price := quote.Price

	exps, err := r.market.GetExpirations(ctx, ticker)
	if err != nil {
		return r.fallback(rec, fmt.Sprintf("expirations unavailable: %v", err))
	}
	exp, ok := PickExpiration(exps, TargetDTE(rec.Timeframe))
	if !ok {
		return r.fallback(rec, "no expirations listed")
	}

	chain, err := r.market.GetChain(ctx, ticker, exp.Date, true)
	if err != nil {
		return r.fallback(rec, fmt.Sprintf("chain unavailable: %v", err))
	}

	liquid := FilterLiquid(chain, rec.OpportunityType, r.policy.LiquidityFloor)
	selected, ok := SelectStrike(liquid, price, rec.Confidence, rec.OpportunityType, r.policy)
	if !ok {
		return r.fallback(rec, fmt.Sprintf("no %s contracts with open interest >= %d", rec.OpportunityType, r.policy.LiquidityFloor))
	}

	premium := Premium(selected)
	out := models.OptionRecommendation{
		Ticker:               ticker,
		Contract:             &selected,
		AlternativeContracts: Alternatives(liquid, price, selected, r.policy.Alternatives),
		CurrentPrice:         price,
		Premium:              models.Round2(premium),
		Cost:                 models.Round2(premium * 100),
		BreakEven:            models.Round2(BreakEven(selected, premium)),
		ProbabilityOfProfit:  ProbabilityOfProfit(selected, price),
		DaysToExpiration:     exp.DaysToExpiration,
		LiveData:             true,
	}

	n := r.narrate(ctx, rec, &out, exp.Date)
	out.Strategy, out.EntryPlan, out.ExitPlan, out.RiskNotes = n.Strategy, n.Entry, n.Exit, n.Risk

	r.log.Info("option recommendation ready",
		zap.String("id", rec.ID),
		zap.String("ticker", ticker),
		zap.Float64("strike", selected.Strike),
		zap.Int("dte", exp.DaysToExpiration),
		zap.Int("pop", out.ProbabilityOfProfit),
	)

	return out
}

func (r *Recommender) fallback(rec *models.PredictionRecord, reason string) models.OptionRecommendation {
	r.log.Warn("live option data unavailable, using fallback",
		zap.String("id", rec.ID),
		zap.String("ticker", rec.PrimaryTicker()),
		zap.String("reason", reason),
	)

	kind := "calls"
	if rec.OpportunityType == models.OpportunityPut {
		kind = "puts"
	}

	return models.OptionRecommendation{
		Ticker: rec.PrimaryTicker(),
		Strategy: fmt.Sprintf("Live market data was unavailable. Consider %s on %s expiring in about %d days, sized to a loss you can accept.",
			kind, orDefault(rec.PrimaryTicker(), rec.Sector), TargetDTE(rec.Timeframe)),
		EntryPlan:            orDefault(rec.EntryTiming, "Wait for live quotes before entering."),
		ExitPlan:             orDefault(rec.ExitStrategy, "Exit at the end of the forecast window or on a thesis break."),
		RiskNotes:            "No contract was priced. Check the bid/ask spread and open interest before trading.",
		AlternativeContracts: []models.OptionContract{},
		LiveData:             false,
	}
}

func (r *Recommender) narrate(ctx context.Context, rec *models.PredictionRecord, out *models.OptionRecommendation, exp time.Time) narration {
	c := out.Contract
	text := templatedNarration(rec, out, exp)

	if r.reasoner == nil || r.templates == nil {
		return text
	}

	data := narrationData{
		Direction:           rec.Direction,
		Ticker:              out.Ticker,
		Sector:              rec.Sector,
		Confidence:          rec.Confidence,
		Timeframe:           rec.Timeframe,
		Reasoning:           rec.Reasoning,
		Expiration:          exp.Format("2006-01-02"),
		Strike:              c.Strike,
		Type:                c.Type,
		DaysToExpiration:    out.DaysToExpiration,
		CurrentPrice:        out.CurrentPrice,
		Premium:             out.Premium,
		Cost:                out.Cost,
		BreakEven:           out.BreakEven,
		ProbabilityOfProfit: out.ProbabilityOfProfit,
		HasDelta:            c.Delta != nil,
		Theta:               c.Theta,
		ImpliedVolatility:   c.ImpliedVolatility,
		OpenInterest:        c.OpenInterest,
		EntryTiming:         rec.EntryTiming,
		ExitStrategy:        rec.ExitStrategy,
	}
	if c.Delta != nil {
		data.Delta = *c.Delta
	}

	system, user, err := templates.RenderPrompts(r.templates, narrationTemplate, data)
	if err != nil {
		r.log.Warn("failed to render narration prompt", zap.Error(err))
		return text
	}

	resp, err := r.reasoner.Complete(ctx, system, user, NarrationSchema)
	if err != nil {
		r.log.Warn("narration failed, using templated text", zap.String("provider", r.reasoner.Name()), zap.Error(err))
		return text
	}

	var n narration
	if err := ai.DecodeJSON(resp, &n); err != nil {
		r.log.Warn("malformed narration, using templated text", zap.Error(err))
		return text
	}

	n.Strategy = orDefault(n.Strategy, text.Strategy)
	n.Entry = orDefault(n.Entry, text.Entry)
	n.Exit = orDefault(n.Exit, text.Exit)
	n.Risk = orDefault(n.Risk, text.Risk)
	return n
}

func templatedNarration(rec *models.PredictionRecord, out *models.OptionRecommendation, exp time.Time) narration {
	c := out.Contract
	return narration{
		Strategy: fmt.Sprintf("Buy the %s %s $%.2f %s for about $%.2f per contract. Break-even at expiration is $%.2f.",
			out.Ticker, exp.Format("Jan 2 2006"), c.Strike, c.Type, out.Cost, out.BreakEven),
		Entry: orDefault(rec.EntryTiming, "Enter with a limit order near the mid price."),
		Exit:  orDefault(rec.ExitStrategy, "Take profits into strength and exit before the final two weeks of time decay."),
		Risk: fmt.Sprintf("Maximum loss is the $%.2f premium paid. Estimated probability of profit is %d%%.",
			out.Cost, out.ProbabilityOfProfit),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
