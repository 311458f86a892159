package options

import (
	"math"
	"sort"

	"github.com/selivandex/rally-radar/internal/adapters/config"
	"github.com/selivandex/rally-radar/pkg/models"
)

// DefaultTargetDTE is used for timeframes outside the known set
const DefaultTargetDTE = 30

// Policy holds the tunable selection constants
type Policy struct {
	LiquidityFloor  int64
	Alternatives    int
	HighConfidence  int
	MidConfidence   int
	MidStrikeOffset float64
	LowStrikeOffset float64
}

// DefaultPolicy matches the historical selection rules
func DefaultPolicy() Policy {
	return Policy{
		LiquidityFloor:  50,
		Alternatives:    5,
		HighConfidence:  75,
		MidConfidence:   50,
		MidStrikeOffset: 0.05,
		LowStrikeOffset: 0.10,
	}
}

// PolicyFromConfig builds a policy from configuration
func PolicyFromConfig(cfg config.OptionsConfig) Policy {
	return Policy{
		LiquidityFloor:  cfg.LiquidityFloor,
		Alternatives:    cfg.Alternatives,
		HighConfidence:  cfg.HighConfidence,
		MidConfidence:   cfg.MidConfidence,
		MidStrikeOffset: cfg.MidStrikeOffset,
		LowStrikeOffset: cfg.LowStrikeOffset,
	}
}

// TargetDTE maps a forecast timeframe to a target days-to-expiration
func TargetDTE(timeframe string) int {
	switch timeframe {
	case models.Timeframe2to3Weeks:
		return 21
	case models.Timeframe1to2Months:
		return 45
	case models.Timeframe3to6Months:
		return 90
	default:
		return DefaultTargetDTE
	}
}

// PickExpiration returns the expiration closest to target. Ties keep the
// first one encountered. Expired dates are ignored.
func PickExpiration(exps []models.Expiration, target int) (models.Expiration, bool) {
	best, found := models.Expiration{}, false
	bestDiff := math.MaxInt

	for _, e := range exps {
		if e.DaysToExpiration < 0 {
			continue
		}
		diff := e.DaysToExpiration - target
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff, found = e, diff, true
		}
	}

	return best, found
}

// FilterLiquid keeps contracts of the given type with open interest at or above floor
func FilterLiquid(chain []models.OptionContract, opType models.OpportunityType, floor int64) []models.OptionContract {
	out := make([]models.OptionContract, 0, len(chain))
	for _, c := range chain {
		if c.Type == opType && c.OpenInterest >= floor {
			out = append(out, c)
		}
	}
	return out
}

// TargetStrike is the strike the confidence tier aims for
func TargetStrike(price float64, confidence int, opType models.OpportunityType, p Policy) float64 {
	var offset float64
	switch {
	case confidence >= p.HighConfidence:
		return price
	case confidence >= p.MidConfidence:
		offset = p.MidStrikeOffset
	default:
		offset = p.LowStrikeOffset
	}

	if opType == models.OpportunityPut {
		return price * (1 - offset)
	}
	return price * (1 + offset)
}

// SelectStrike picks the liquid contract whose strike is closest to the
// confidence tier's target. Ties keep the first contract encountered.
func SelectStrike(liquid []models.OptionContract, price float64, confidence int, opType models.OpportunityType, p Policy) (models.OptionContract, bool) {
	if len(liquid) == 0 {
		return models.OptionContract{}, false
	}
	target := TargetStrike(price, confidence, opType, p)

	best := 0
	for i := 1; i < len(liquid); i++ {
		if math.Abs(liquid[i].Strike-target) < math.Abs(liquid[best].Strike-target) {
			best = i
		}
	}
	return liquid[best], true
}

// Alternatives returns up to n liquid contracts nearest the current price,
// excluding the selected strike
func Alternatives(liquid []models.OptionContract, price float64, selected models.OptionContract, n int) []models.OptionContract {
	out := make([]models.OptionContract, 0, len(liquid))
	for _, c := range liquid {
		if c.Strike == selected.Strike {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Strike-price) < math.Abs(out[j].Strike-price)
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Premium is the bid/ask midpoint, or the last trade when either side is zero
func Premium(c models.OptionContract) float64 {
	if c.Bid > 0 && c.Ask > 0 {
		return (c.Bid + c.Ask) / 2
	}
	return c.Last
}

// BreakEven is the underlying price where the position neither gains nor loses at expiration
func BreakEven(c models.OptionContract, premium float64) float64 {
	if c.Type == models.OpportunityPut {
		return c.Strike - premium
	}
	return c.Strike + premium
}

// ProbabilityOfProfit uses |delta| when available and a moneyness table otherwise
func ProbabilityOfProfit(c models.OptionContract, price float64) int {
	if c.Delta != nil {
		return int(math.Round(math.Abs(*c.Delta) * 100))
	}
	if price <= 0 {
		return 0
	}

	ratio := c.Strike / price
	if c.Type == models.OpportunityPut {
		switch {
		case ratio > 1.05:
			return 70
		case ratio > 1.0:
			return 60
		case ratio > 0.95:
			return 50
		case ratio > 0.9:
			return 40
		default:
			return 30
		}
	}

	switch {
	case ratio < 0.95:
		return 70
	case ratio < 1.0:
		return 60
	case ratio < 1.05:
		return 50
	case ratio < 1.1:
		return 40
	default:
		return 30
	}
}
