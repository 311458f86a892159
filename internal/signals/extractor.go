package signals

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/selivandex/rally-radar/internal/sentiment"
	"github.com/selivandex/rally-radar/pkg/models"
)

// DefaultWindowDays is the lookback used for early-signal detection
const DefaultWindowDays = 7

// Early-signal thresholds
const (
	minVolumeArticles  = 3
	minBullishRatio    = 0.6
	minRallyIndicators = 2
	minDistinctTickers = 3
)

// SectorSignals is the per-sector summary handed to the forecaster
type SectorSignals struct {
	Sector                string        `json:"sector"`
	Signals               []string      `json:"signals"`
	ArticleCount          int           `json:"articleCount"`
	BullishRatio          float64       `json:"bullishRatio"`
	Momentum              MomentumTrend `json:"momentum"`
	InstitutionalActivity bool          `json:"institutionalActivity"`
	HistoricalMatch       bool          `json:"historicalMatch"`
	Probability           int           `json:"probability"`
}

// ExtractHistoricalPatterns summarizes past rallies. Records not flagged
// historical are skipped; unparseable fields become empty.
func ExtractHistoricalPatterns(rallies []models.HistoricalRally) []models.HistoricalPattern {
	patterns := make([]models.HistoricalPattern, 0, len(rallies))

	for _, r := range rallies {
		if !r.IsHistorical {
			continue
		}

		patterns = append(patterns, models.HistoricalPattern{
			Sector:       strings.TrimSpace(r.Sector),
			EarlySignals: parseList(r.EarlySignals),
			Catalysts:    parseList(r.Catalysts),
			AvgGain:      strings.TrimSpace(r.Performance),
			TimeToRally:  timeToRally(r.Timeframe),
		})
	}

	return patterns
}

// parseList accepts a JSON string array or newline/comma/semicolon separated text
func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	if strings.HasPrefix(raw, "[") {
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			return cleanItems(items)
		}
		raw = strings.Trim(raw, "[]")
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';'
	})
	return cleanItems(parts)
}

func cleanItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		it = strings.TrimLeft(it, "-*• ")
		it = strings.Trim(it, `"`)
		if it != "" {
			out = append(out, it)
		}
	}
	return out
}

func timeToRally(timeframe string) int {
	window := (&models.RallyPrediction{Timeframe: strings.TrimSpace(timeframe)}).Window()
	if days, ok := models.WindowDays(window); ok {
		return days
	}
	return models.DefaultTimeToRally
}

// withinWindow returns items tagged with sector and published in (now-windowDays, now]
func withinWindow(sector string, news []models.NewsSignal, windowDays int, now time.Time) []models.NewsSignal {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	cutoff := now.AddDate(0, 0, -windowDays)

	out := make([]models.NewsSignal, 0)
	for i := range news {
		n := &news[i]
		if !n.HasSector(sector) {
			continue
		}
		if n.PublishedAt.Before(cutoff) || n.PublishedAt.After(now) {
			continue
		}
		out = append(out, *n)
	}
	return out
}

type sectorStats struct {
	count        int
	bullish      int
	rallySignals int
	tickers      map[string]struct{}
}

func (s sectorStats) bullishRatio() float64 {
	if s.count == 0 {
		return 0
	}
	return float64(s.bullish) / float64(s.count)
}

func collectStats(items []models.NewsSignal) sectorStats {
	s := sectorStats{count: len(items), tickers: map[string]struct{}{}}
	for i := range items {
		n := &items[i]
		if n.Sentiment == models.SentimentBullish {
			s.bullish++
		}
		if n.IsRallySignal() {
			s.rallySignals++
		}
		for _, t := range n.MentionedStocks {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t != "" {
				s.tickers[t] = struct{}{}
			}
		}
	}
	return s
}

// DetectEarlySignals returns human-readable early-warning signals for sector.
// Each of the four thresholds is checked independently.
func DetectEarlySignals(sector string, news []models.NewsSignal, windowDays int, now time.Time) []string {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return signalStrings(collectStats(withinWindow(sector, news, windowDays, now)), windowDays)
}

func signalStrings(s sectorStats, windowDays int) []string {
	signals := make([]string, 0, 4)

	if s.count >= minVolumeArticles {
		signals = append(signals, fmt.Sprintf("High news volume: %d articles in the last %d days", s.count, windowDays))
	}
	if s.count > 0 && s.bullishRatio() >= minBullishRatio {
		signals = append(signals, fmt.Sprintf("Bullish sentiment: %.0f%% of coverage is positive", s.bullishRatio()*100))
	}
	if s.rallySignals >= minRallyIndicators {
		signals = append(signals, fmt.Sprintf("Rally indicators: %d articles flag strong or moderate rally potential", s.rallySignals))
	}
	if len(s.tickers) >= minDistinctTickers {
		signals = append(signals, fmt.Sprintf("Broad participation: %d distinct tickers mentioned", len(s.tickers)))
	}

	return signals
}

// momentumOf compares article counts in the recent and older halves of the window
func momentumOf(items []models.NewsSignal, windowDays int, now time.Time) MomentumTrend {
	mid := now.Add(-time.Duration(windowDays) * 24 * time.Hour / 2)

	recent, older := 0, 0
	for i := range items {
		if items[i].PublishedAt.After(mid) {
			recent++
		} else {
			older++
		}
	}

	switch {
	case recent > older:
		return MomentumIncreasing
	case recent < older:
		return MomentumDecreasing
	default:
		return MomentumStable
	}
}

// BuildSectorSignalMap summarizes every sector any item references
func BuildSectorSignalMap(news []models.NewsSignal, patterns []models.HistoricalPattern, windowDays int, now time.Time) map[string]SectorSignals {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	out := make(map[string]SectorSignals)
	for _, sector := range sectorsOf(news) {
		items := withinWindow(sector, news, windowDays, now)
		stats := collectStats(items)

		institutional := false
		for i := range items {
			if sentiment.Institutional.Matches(items[i].Title + " " + items[i].Summary) {
				institutional = true
				break
			}
		}

		historical := false
		for _, p := range patterns {
			if strings.EqualFold(p.Sector, sector) {
				historical = true
				break
			}
		}

		momentum := momentumOf(items, windowDays, now)

		out[sector] = SectorSignals{
			Sector:                sector,
			Signals:               signalStrings(stats, windowDays),
			ArticleCount:          stats.count,
			BullishRatio:          stats.bullishRatio(),
			Momentum:              momentum,
			InstitutionalActivity: institutional,
			HistoricalMatch:       historical,
			Probability:           CalculateRallyProbability(stats.count, stats.bullishRatio(), momentum, institutional, historical),
		}
	}

	return out
}

// sectorsOf returns distinct sector names, case-insensitively, in first-seen spelling
func sectorsOf(news []models.NewsSignal) []string {
	seen := map[string]bool{}
	var out []string
	for i := range news {
		for _, s := range news[i].Sectors {
			s = strings.TrimSpace(s)
			key := strings.ToLower(s)
			if s == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
	}
	return out
}

// Ranked orders sector signals by probability, then article count, then name
func Ranked(m map[string]SectorSignals) []SectorSignals {
	out := make([]SectorSignals, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		if out[i].ArticleCount != out[j].ArticleCount {
			return out[i].ArticleCount > out[j].ArticleCount
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}
