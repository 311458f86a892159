package signals

// MomentumTrend describes how coverage volume is moving within the window
type MomentumTrend string

const (
	MomentumIncreasing MomentumTrend = "increasing"
	MomentumStable     MomentumTrend = "stable"
	MomentumDecreasing MomentumTrend = "decreasing"
)

// CalculateRallyProbability scores rally likelihood 0-100 from additive points.
// The breakpoints are fixed; stored predictions were scored with them.
func CalculateRallyProbability(newsCount int, bullishRatio float64, momentum MomentumTrend, institutionalActivity, historicalMatch bool) int {
	score := 0

	switch {
	case newsCount >= 10:
		score += 30
	case newsCount >= 5:
		score += 20
	case newsCount >= 3:
		score += 10
	}

	switch {
	case bullishRatio >= 0.8:
		score += 25
	case bullishRatio >= 0.6:
		score += 15
	case bullishRatio >= 0.5:
		score += 5
	}

	switch momentum {
	case MomentumIncreasing:
		score += 20
	case MomentumStable:
		score += 10
	}

	if institutionalActivity {
		score += 15
	}
	if historicalMatch {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}
