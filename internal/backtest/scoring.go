package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/selivandex/rally-radar/pkg/models"
)

// DefaultSuccessThreshold is the absolute average return separating a
// directional outcome from neutral
const DefaultSuccessThreshold = 0.02

// ParseWindow parses an evaluation window such as "3 weeks"
func ParseWindow(s string) (int, models.WindowUnit, bool) {
	return models.ParseWindow(s)
}

// EvaluationDate returns start plus the window. ok is false when the window
// cannot be parsed.
func EvaluationDate(start time.Time, window string) (time.Time, bool) {
	n, unit, ok := models.ParseWindow(window)
	if !ok {
		return time.Time{}, false
	}
	return models.AddWindow(start, n, unit), true
}

// Classify scores an average return against the predicted direction. Returns
// within the threshold (inclusive) are neutral.
func Classify(avgReturn float64, isUp bool, threshold float64) models.Outcome {
	switch {
	case isUp && avgReturn > threshold:
		return models.OutcomeSuccess
	case !isUp && avgReturn < -threshold:
		return models.OutcomeSuccess
	case math.Abs(avgReturn) <= threshold:
		return models.OutcomeNeutral
	default:
		return models.OutcomeFailure
	}
}

// FormatPerformance renders a return ratio as a percentage with two decimals
func FormatPerformance(avgReturn float64) string {
	return fmt.Sprintf("%.2f%%", avgReturn*100)
}

// AverageReturn averages (current-initial)/initial over tickers priced at both
// ends. It returns the count of tickers used.
func AverageReturn(initial, current map[string]float64) (float64, int) {
	sum, n := 0.0, 0
	for ticker, entry := range initial {
		now, ok := current[ticker]
		if !ok || entry <= 0 || now <= 0 {
			continue
		}
		sum += (now - entry) / entry
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}
