package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/internal/adapters/ai"
	"github.com/selivandex/rally-radar/internal/adapters/config"
	"github.com/selivandex/rally-radar/internal/sentiment"
	"github.com/selivandex/rally-radar/internal/signals"
	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/models"
	"github.com/selivandex/rally-radar/pkg/templates"
)

const forecastTemplate = "forecast.tmpl"

// Result is the outcome of one forecast run. Reason explains an empty result
// (ErrInsufficientData or ErrUpstreamFailure) and is for diagnostics only.
type Result struct {
	Predictions []models.RallyPrediction
	Reason      error
	Candidates  int
	Dropped     int
	Corrected   int
}

// Orchestrator turns recent news and historical patterns into validated predictions
type Orchestrator struct {
	reasoner  ai.Reasoner
	templates templates.Renderer
	cfg       config.ForecastConfig
	validate  *validator.Validate
	now       func() time.Time
	log       *zap.Logger
}

// NewOrchestrator creates new orchestrator
func NewOrchestrator(reasoner ai.Reasoner, tmpl templates.Renderer, cfg config.ForecastConfig, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		reasoner:  reasoner,
		templates: tmpl,
		cfg:       cfg,
		validate:  validator.New(),
		now:       time.Now,
		log:       logger.OrGlobal(log, "forecast"),
	}
}

// Schema is the structured output requested from the reasoning service
var Schema = &ai.Schema{
	Name: "rally_predictions",
	Type: ai.TypeObject,
	Properties: map[string]*ai.Schema{
		"predictions": ai.Array(ai.Object(map[string]*ai.Schema{
			"sector":            ai.String(),
			"opportunityType":   ai.String(string(models.OpportunityCall), string(models.OpportunityPut)),
			"direction":         ai.String(string(models.DirectionUp), string(models.DirectionDown)),
			"confidence":        ai.Integer(),
			"timeframe":         ai.String(models.Timeframes...),
			"earlySignals":      ai.Array(ai.String()),
			"recommendedStocks": ai.Array(ai.String()),
			"reasoning":         ai.String(),
			"entryTiming":       ai.String(),
			"exitStrategy":      ai.String(),
		}, "sector", "opportunityType", "direction", "confidence", "timeframe", "recommendedStocks", "reasoning")),
	},
	Required: []string{"predictions"},
}

type promptNews struct {
	PublishedAt    string
	Source         string
	Sentiment      models.Sentiment
	RallyIndicator models.RallyIndicator
	Title          string
	Summary        string
	Sectors        []string
	Stocks         []string
}

type promptData struct {
	PrioritySectors []string
	BullishKeywords []string
	BearishKeywords []string
	Timeframes      []string
	MinConfidence   int
	News            []promptNews
	Sectors         []signals.SectorSignals
	Patterns        []models.HistoricalPattern
}

// Generate runs one forecast. It never returns an error: insufficient data and
// upstream failures yield an empty prediction set with Reason set.
func (o *Orchestrator) Generate(ctx context.Context, news []models.NewsSignal, patterns []models.HistoricalPattern) Result {
	qualifying := make([]models.NewsSignal, 0, len(news))
	for i := range news {
		if news[i].IsAnalyzed() {
			qualifying = append(qualifying, news[i])
		}
	}

	if len(qualifying) < o.cfg.MinNews {
		o.log.Info("not enough analyzed news for forecast",
			zap.Int("analyzed", len(qualifying)),
			zap.Int("required", o.cfg.MinNews),
		)
		return Result{Reason: models.NewPipelineError(models.ErrInsufficientData, "forecast.generate",
			fmt.Errorf("%d analyzed items, need %d", len(qualifying), o.cfg.MinNews))}
	}

	sort.SliceStable(qualifying, func(i, j int) bool {
		return qualifying[i].PublishedAt.After(qualifying[j].PublishedAt)
	})
	if len(qualifying) > o.cfg.PromptNews {
		qualifying = qualifying[:o.cfg.PromptNews]
	}

	now := o.now()
	sectorMap := signals.BuildSectorSignalMap(qualifying, patterns, o.cfg.SignalWindow, now)

	systemPrompt, userPrompt, err := templates.RenderPrompts(o.templates, forecastTemplate, o.promptData(qualifying, sectorMap, patterns))
	if err != nil {
		o.log.Error("failed to render forecast prompt", zap.Error(err))
		return Result{Reason: models.NewPipelineError(models.ErrUpstreamFailure, "forecast.render", err)}
	}

	text, err := o.reasoner.Complete(ctx, systemPrompt, userPrompt, Schema)
	if err != nil {
		o.log.Warn("reasoning service failed, returning no predictions",
			zap.String("provider", o.reasoner.Name()),
			zap.Error(err),
		)
		return Result{Reason: models.NewPipelineError(models.ErrUpstreamFailure, "forecast.complete", err)}
	}

	var resp rawResponse
	if err := ai.DecodeJSON(text, &resp); err != nil {
		o.log.Warn("malformed forecast response", zap.Error(err))
		return Result{Reason: models.NewPipelineError(models.ErrUpstreamFailure, "forecast.parse", err)}
	}

	result := Result{Predictions: make([]models.RallyPrediction, 0, len(resp.Predictions)), Candidates: len(resp.Predictions)}
	for _, rawMsg := range resp.Predictions {
		var raw rawPrediction
		if err := json.Unmarshal(rawMsg, &raw); err != nil {
			result.Dropped++
			continue
		}

		p := normalize(raw)
		if err := o.Validate(&p); err != nil {
			o.log.Debug("dropping invalid candidate", zap.String("sector", p.Sector), zap.Error(err))
			result.Dropped++
			continue
		}

		if CorrectDirection(&p) {
			result.Corrected++
		}
		result.Predictions = append(result.Predictions, p)
	}

	o.log.Info("forecast generated",
		zap.Int("news", len(qualifying)),
		zap.Int("sectors", len(sectorMap)),
		zap.Int("candidates", result.Candidates),
		zap.Int("accepted", len(result.Predictions)),
		zap.Int("dropped", result.Dropped),
		zap.Int("corrected", result.Corrected),
	)

	return result
}

// Validate checks a normalized candidate; the error wraps ErrValidationRejected
func (o *Orchestrator) Validate(p *models.RallyPrediction) error {
	if err := o.validate.Struct(p); err != nil {
		return models.NewPipelineError(models.ErrValidationRejected, "forecast.validate", err)
	}
	if p.Confidence < o.cfg.MinConfidence {
		return models.NewPipelineError(models.ErrValidationRejected, "forecast.validate",
			fmt.Errorf("confidence %d below %d", p.Confidence, o.cfg.MinConfidence))
	}
	return nil
}

func (o *Orchestrator) promptData(news []models.NewsSignal, sectorMap map[string]signals.SectorSignals, patterns []models.HistoricalPattern) promptData {
	items := make([]promptNews, 0, len(news))
	for i := range news {
		n := &news[i]
		items = append(items, promptNews{
			PublishedAt:    n.PublishedAt.UTC().Format("2006-01-02 15:04"),
			Source:         n.Source,
			Sentiment:      n.Sentiment,
			RallyIndicator: n.RallyIndicator,
			Title:          n.Title,
			Summary:        truncate(n.Summary, o.cfg.SummaryLength),
			Sectors:        n.Sectors,
			Stocks:         n.MentionedStocks,
		})
	}

	return promptData{
		PrioritySectors: o.cfg.PrioritySectors,
		BullishKeywords: sentiment.Bullish.Words(),
		BearishKeywords: sentiment.Bearish.Words(),
		Timeframes:      models.Timeframes,
		MinConfidence:   o.cfg.MinConfidence,
		News:            items,
		Sectors:         signals.Ranked(sectorMap),
		Patterns:        patterns,
	}
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// CorrectDirection relabels a candidate whose reasoning and early signals
// contradict its option type. Ties are left alone. It reports whether it flipped.
func CorrectDirection(p *models.RallyPrediction) bool {
	text := strings.ToLower(p.Reasoning + " " + strings.Join(p.EarlySignals, " "))
	lean := sentiment.Score(text)

	switch {
	case lean.IsBearish() && p.OpportunityType == models.OpportunityCall:
		p.OpportunityType = models.OpportunityPut
		p.Direction = models.DirectionDown
		return true
	case lean.IsBullish() && p.OpportunityType == models.OpportunityPut:
		p.OpportunityType = models.OpportunityCall
		p.Direction = models.DirectionUp
		return true
	}
	return false
}
