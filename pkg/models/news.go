package models

import (
	"strings"
	"time"
)

// Sentiment is the analyzed tone of a news item
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// RallyIndicator is the analyzer's estimate of how strongly an article points to a rally
type RallyIndicator string

const (
	RallyStrong   RallyIndicator = "strong"
	RallyModerate RallyIndicator = "moderate"
	RallyWeak     RallyIndicator = "weak"
	RallyNone     RallyIndicator = "none"
)

// NewsSignal is one analyzed article produced by the ingestion layer
type NewsSignal struct {
	PublishedAt     time.Time      `json:"publishedAt" db:"published_at"`
	ID              string         `json:"id" db:"id"`
	Title           string         `json:"title" db:"title"`
	Summary         string         `json:"summary" db:"summary"`
	Source          string         `json:"source" db:"source"`
	URL             string         `json:"url" db:"url"`
	Sentiment       Sentiment      `json:"sentiment" db:"sentiment"`
	RallyIndicator  RallyIndicator `json:"rallyIndicator" db:"rally_indicator"`
	Sectors         []string       `json:"sectors" db:"-"`
	MentionedStocks []string       `json:"mentionedStocks" db:"-"`
}

// IsAnalyzed reports whether the item may participate in forecasting
func (n *NewsSignal) IsAnalyzed() bool {
	return n.Sentiment != "" && strings.TrimSpace(n.Summary) != ""
}

// HasSector reports whether the item is tagged with sector (case-insensitive)
func (n *NewsSignal) HasSector(sector string) bool {
	for _, s := range n.Sectors {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(sector)) {
			return true
		}
	}
	return false
}

// IsRallySignal reports whether the rally indicator is strong or moderate
func (n *NewsSignal) IsRallySignal() bool {
	return n.RallyIndicator == RallyStrong || n.RallyIndicator == RallyModerate
}

// HistoricalRally is a stored record of a past, non-predictive sector rally.
// Catalysts and EarlySignals hold the raw stored text (JSON array or delimited list).
type HistoricalRally struct {
	StartDate    time.Time `json:"startDate" db:"start_date"`
	ID           string    `json:"id" db:"id"`
	Sector       string    `json:"sector" db:"sector"`
	Catalysts    string    `json:"catalysts" db:"catalysts"`
	EarlySignals string    `json:"earlySignals" db:"early_signals"`
	Performance  string    `json:"performance" db:"performance"`
	Timeframe    string    `json:"timeframe" db:"timeframe"`
	IsHistorical bool      `json:"isHistorical" db:"is_historical"`
}

// DefaultTimeToRally is used when a historical record does not state its duration
const DefaultTimeToRally = 21

// HistoricalPattern summarizes how a past rally in a sector unfolded
type HistoricalPattern struct {
	Sector       string   `json:"sector"`
	AvgGain      string   `json:"avgGain"`
	EarlySignals []string `json:"earlySignals"`
	Catalysts    []string `json:"catalysts"`
	TimeToRally  int      `json:"timeToRally"`
}
