package signals

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/rally-radar/pkg/models"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func article(sector string, s models.Sentiment, rally models.RallyIndicator, age time.Duration, tickers ...string) models.NewsSignal {
	return models.NewsSignal{
		ID:              fmt.Sprintf("%s-%d", sector, age),
		Title:           sector + " headline",
		Summary:         "summary",
		Sentiment:       s,
		RallyIndicator:  rally,
		Sectors:         []string{sector},
		MentionedStocks: tickers,
		PublishedAt:     now.Add(-age),
	}
}

func containsPrefix(signals []string, prefix string) bool {
	for _, s := range signals {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func TestDetectEarlySignals_Thresholds(t *testing.T) {
	testCases := []struct {
		name     string
		news     []models.NewsSignal
		expected []string
	}{
		{
			name:     "no articles",
			expected: []string{},
		},
		{
			name: "volume only",
			news: []models.NewsSignal{
				article("AI", models.SentimentBearish, models.RallyNone, time.Hour),
				article("AI", models.SentimentNeutral, models.RallyNone, 2*time.Hour),
				article("AI", models.SentimentBearish, models.RallyWeak, 3*time.Hour),
			},
			expected: []string{"High news volume: 3 articles"},
		},
		{
			name: "sentiment and rally without volume",
			news: []models.NewsSignal{
				article("AI", models.SentimentBullish, models.RallyStrong, time.Hour),
				article("AI", models.SentimentBullish, models.RallyModerate, 2*time.Hour),
			},
			expected: []string{"Bullish sentiment: 100%", "Rally indicators: 2"},
		},
		{
			name: "breadth only",
			news: []models.NewsSignal{
				article("AI", models.SentimentNeutral, models.RallyNone, time.Hour, "NVDA", "AMD", "nvda", "TSM"),
			},
			expected: []string{"Broad participation: 3 distinct tickers"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			signals := DetectEarlySignals("AI", tc.news, 7, now)
			require.Len(t, signals, len(tc.expected))
			for _, prefix := range tc.expected {
				assert.True(t, containsPrefix(signals, prefix), "missing %q in %v", prefix, signals)
			}
		})
	}
}

func TestDetectEarlySignals_IgnoresOtherSectorsAndOldNews(t *testing.T) {
	news := []models.NewsSignal{
		article("AI", models.SentimentBullish, models.RallyStrong, time.Hour),
		article("AI", models.SentimentBullish, models.RallyStrong, 8*24*time.Hour),
		article("Biotech", models.SentimentBullish, models.RallyStrong, time.Hour),
		article("ai", models.SentimentBullish, models.RallyNone, 2*time.Hour),
	}

	signals := DetectEarlySignals("AI", news, 7, now)
	assert.False(t, containsPrefix(signals, "High news volume"))
	assert.False(t, containsPrefix(signals, "Rally indicators"))
	assert.True(t, containsPrefix(signals, "Bullish sentiment: 100%"))
}

func TestExtractHistoricalPatterns(t *testing.T) {
	rallies := []models.HistoricalRally{
		{
			Sector:       "Semiconductors",
			IsHistorical: true,
			Catalysts:    `["CHIPS Act", "AI capex"]`,
			EarlySignals: "- rising volume\n- analyst upgrades",
			Performance:  "+45%",
			Timeframe:    "2-3 weeks",
		},
		{
			Sector:       "Nuclear Energy",
			IsHistorical: true,
			Catalysts:    "SMR approvals, utility deals",
			Timeframe:    "someday",
		},
		{
			Sector:       "AI",
			IsHistorical: false,
			Catalysts:    `["skip me"]`,
		},
		{
			Sector:       "Space",
			IsHistorical: true,
			Catalysts:    `[broken json`,
			Timeframe:    "10 days",
		},
	}

	patterns := ExtractHistoricalPatterns(rallies)
	require.Len(t, patterns, 3)

	assert.Equal(t, "Semiconductors", patterns[0].Sector)
	assert.Equal(t, []string{"CHIPS Act", "AI capex"}, patterns[0].Catalysts)
	assert.Equal(t, []string{"rising volume", "analyst upgrades"}, patterns[0].EarlySignals)
	assert.Equal(t, "+45%", patterns[0].AvgGain)
	assert.Equal(t, 21, patterns[0].TimeToRally)

	assert.Equal(t, []string{"SMR approvals", "utility deals"}, patterns[1].Catalysts)
	assert.Empty(t, patterns[1].EarlySignals)
	assert.Equal(t, models.DefaultTimeToRally, patterns[1].TimeToRally)

	assert.Equal(t, []string{"broken json"}, patterns[2].Catalysts)
	assert.Equal(t, 10, patterns[2].TimeToRally)
}

func TestExtractHistoricalPatterns_Empty(t *testing.T) {
	assert.Empty(t, ExtractHistoricalPatterns(nil))
}

func TestBuildSectorSignalMap(t *testing.T) {
	news := []models.NewsSignal{
		article("AI", models.SentimentBullish, models.RallyStrong, time.Hour, "NVDA"),
		article("AI", models.SentimentBullish, models.RallyStrong, 2*time.Hour, "AMD"),
		article("AI", models.SentimentBullish, models.RallyNone, 3*time.Hour, "MSFT"),
		article("AI", models.SentimentNeutral, models.RallyNone, 5*24*time.Hour),
		article("Biotech", models.SentimentBearish, models.RallyNone, 6*24*time.Hour),
	}
	news[0].Summary = "ARK Invest keeps accumulating"

	patterns := []models.HistoricalPattern{{Sector: "ai"}}

	m := BuildSectorSignalMap(news, patterns, 7, now)
	require.Len(t, m, 2)

	ai := m["AI"]
	assert.Equal(t, 4, ai.ArticleCount)
	assert.InDelta(t, 0.75, ai.BullishRatio, 1e-9)
	assert.Equal(t, MomentumIncreasing, ai.Momentum)
	assert.True(t, ai.InstitutionalActivity)
	assert.True(t, ai.HistoricalMatch)
	assert.Len(t, ai.Signals, 4)
	assert.Equal(t, CalculateRallyProbability(4, 0.75, MomentumIncreasing, true, true), ai.Probability)

	bio := m["Biotech"]
	assert.Equal(t, MomentumDecreasing, bio.Momentum)
	assert.False(t, bio.HistoricalMatch)

	ranked := Ranked(m)
	assert.Equal(t, "AI", ranked[0].Sector)
}
