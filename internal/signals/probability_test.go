package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateRallyProbability(t *testing.T) {
	testCases := []struct {
		name          string
		count         int
		ratio         float64
		momentum      MomentumTrend
		institutional bool
		historical    bool
		expected      int
	}{
		{"all maxed", 10, 0.8, MomentumIncreasing, true, true, 100},
		{"nothing", 0, 0, MomentumDecreasing, false, false, 0},
		{"volume 5", 5, 0, MomentumDecreasing, false, false, 20},
		{"volume 3", 3, 0, MomentumDecreasing, false, false, 10},
		{"volume 2", 2, 0, MomentumDecreasing, false, false, 0},
		{"ratio 0.6", 0, 0.6, MomentumDecreasing, false, false, 15},
		{"ratio 0.5", 0, 0.5, MomentumDecreasing, false, false, 5},
		{"ratio 0.49", 0, 0.49, MomentumDecreasing, false, false, 0},
		{"stable", 0, 0, MomentumStable, false, false, 10},
		{"institutional", 0, 0, MomentumDecreasing, true, false, 15},
		{"historical", 0, 0, MomentumDecreasing, false, true, 10},
		{"unknown momentum", 0, 0, MomentumTrend("sideways"), false, false, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateRallyProbability(tc.count, tc.ratio, tc.momentum, tc.institutional, tc.historical)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCalculateRallyProbability_MonotoneAndBounded(t *testing.T) {
	counts := []int{0, 2, 3, 4, 5, 9, 10, 50}
	ratios := []float64{0, 0.49, 0.5, 0.59, 0.6, 0.79, 0.8, 1}
	trends := []MomentumTrend{MomentumDecreasing, MomentumStable, MomentumIncreasing}
	flags := []bool{false, true}

	score := func(ci, ri, ti int, inst, hist bool) int {
		return CalculateRallyProbability(counts[ci], ratios[ri], trends[ti], inst, hist)
	}

	for ci := range counts {
		for ri := range ratios {
			for ti := range trends {
				for _, inst := range flags {
					for _, hist := range flags {
						s := score(ci, ri, ti, inst, hist)
						assert.GreaterOrEqual(t, s, 0)
						assert.LessOrEqual(t, s, 100)

						if ci+1 < len(counts) {
							assert.GreaterOrEqual(t, score(ci+1, ri, ti, inst, hist), s)
						}
						if ri+1 < len(ratios) {
							assert.GreaterOrEqual(t, score(ci, ri+1, ti, inst, hist), s)
						}
						if ti+1 < len(trends) {
							assert.GreaterOrEqual(t, score(ci, ri, ti+1, inst, hist), s)
						}
						if !inst {
							assert.GreaterOrEqual(t, score(ci, ri, ti, true, hist), s)
						}
						if !hist {
							assert.GreaterOrEqual(t, score(ci, ri, ti, inst, true), s)
						}
					}
				}
			}
		}
	}
}
