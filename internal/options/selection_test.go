package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/rally-radar/pkg/models"
)

func calls(strikes ...float64) []models.OptionContract {
	out := make([]models.OptionContract, 0, len(strikes))
	for _, s := range strikes {
		out = append(out, models.OptionContract{Type: models.OpportunityCall, Strike: s, OpenInterest: 100})
	}
	return out
}

func strikes(cs []models.OptionContract) []float64 {
	out := make([]float64, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Strike)
	}
	return out
}

func TestTargetDTE(t *testing.T) {
	assert.Equal(t, 21, TargetDTE(models.Timeframe2to3Weeks))
	assert.Equal(t, 45, TargetDTE(models.Timeframe1to2Months))
	assert.Equal(t, 90, TargetDTE(models.Timeframe3to6Months))
	assert.Equal(t, 30, TargetDTE("next year"))
}

func TestPickExpiration(t *testing.T) {
	exps := []models.Expiration{
		{DaysToExpiration: -1},
		{DaysToExpiration: 14},
		{DaysToExpiration: 28},
		{DaysToExpiration: 42},
	}

	got, ok := PickExpiration(exps, 21)
	require.True(t, ok)
	assert.Equal(t, 14, got.DaysToExpiration, "ties keep the first expiration")

	got, ok = PickExpiration(exps, 45)
	require.True(t, ok)
	assert.Equal(t, 42, got.DaysToExpiration)

	_, ok = PickExpiration(nil, 30)
	assert.False(t, ok)
}

func TestFilterLiquid(t *testing.T) {
	chain := []models.OptionContract{
		{Type: models.OpportunityCall, Strike: 100, OpenInterest: 50},
		{Type: models.OpportunityCall, Strike: 105, OpenInterest: 49},
		{Type: models.OpportunityPut, Strike: 95, OpenInterest: 500},
	}

	liquid := FilterLiquid(chain, models.OpportunityCall, 50)
	assert.Equal(t, []float64{100}, strikes(liquid))
}

func TestSelectStrike(t *testing.T) {
	liquid := calls(90, 95, 100, 105, 110)
	p := DefaultPolicy()

	testCases := []struct {
		name       string
		confidence int
		opType     models.OpportunityType
		contracts  []models.OptionContract
		expected   float64
	}{
		{"high confidence takes the nearest strike", 80, models.OpportunityCall, liquid, 100},
		{"exactly 75 is high tier", 75, models.OpportunityCall, liquid, 100},
		{"mid tier call goes 5% out", 60, models.OpportunityCall, liquid, 105},
		{"low tier call goes 10% out", 45, models.OpportunityCall, liquid, 110},
		{"mid tier put goes 5% down", 50, models.OpportunityPut, liquid, 95},
		{"low tier put goes 10% down", 30, models.OpportunityPut, liquid, 90},
		{"ties keep the first contract", 80, models.OpportunityCall, calls(98, 102), 98},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SelectStrike(tc.contracts, 100, tc.confidence, tc.opType, p)
			require.True(t, ok)
			assert.Equal(t, tc.expected, got.Strike)
		})
	}

	_, ok := SelectStrike(nil, 100, 80, models.OpportunityCall, p)
	assert.False(t, ok)
}

func TestAlternatives(t *testing.T) {
	liquid := calls(80, 90, 95, 100, 105, 110, 120)

	alts := Alternatives(liquid, 100, models.OptionContract{Strike: 100}, 5)

	assert.Equal(t, []float64{95, 105, 90, 110, 80}, strikes(alts))
}

func TestPremiumAndBreakEven(t *testing.T) {
	c := models.OptionContract{Type: models.OpportunityCall, Strike: 100, Bid: 2.0, Ask: 2.4, Last: 1.0}
	assert.InDelta(t, 2.2, Premium(c), 1e-9)
	assert.InDelta(t, 102.2, BreakEven(c, 2.2), 1e-9)

	c = models.OptionContract{Type: models.OpportunityPut, Strike: 95, Bid: 0, Ask: 1.5, Last: 1.25}
	assert.Equal(t, 1.25, Premium(c))
	assert.Equal(t, 93.75, BreakEven(c, 1.25))
}

func TestProbabilityOfProfit(t *testing.T) {
	delta := -0.337
	assert.Equal(t, 34, ProbabilityOfProfit(models.OptionContract{Type: models.OpportunityPut, Strike: 95, Delta: &delta}, 100))

	testCases := []struct {
		name     string
		opType   models.OpportunityType
		strike   float64
		expected int
	}{
		{"deep itm call", models.OpportunityCall, 93, 70},
		{"slightly itm call", models.OpportunityCall, 97, 60},
		{"atm call", models.OpportunityCall, 100, 50},
		{"otm call", models.OpportunityCall, 107, 40},
		{"far otm call", models.OpportunityCall, 115, 30},
		{"deep itm put", models.OpportunityPut, 107, 70},
		{"slightly itm put", models.OpportunityPut, 103, 60},
		{"atm put", models.OpportunityPut, 100, 50},
		{"otm put", models.OpportunityPut, 93, 40},
		{"far otm put", models.OpportunityPut, 85, 30},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := models.OptionContract{Type: tc.opType, Strike: tc.strike}
			assert.Equal(t, tc.expected, ProbabilityOfProfit(c, 100))
		})
	}
}
