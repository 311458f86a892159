package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexicon_Count(t *testing.T) {
	l := NewLexicon("weak", "risk-off", "fund buying")

	testCases := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "inflected forms count", text: "Weakness is not weak", expected: 2},
		{name: "repeated", text: "weak, WEAK and weak.", expected: 3},
		{name: "hyphenated keyword", text: "a risk-off tape", expected: 1},
		{name: "phrase", text: "heavy fund buying this week", expected: 1},
		{name: "none", text: "strong rally", expected: 0},
		{name: "empty", text: "", expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, l.Count(tc.text))
		})
	}
}

func TestWordLexicon_Count(t *testing.T) {
	l := NewWordLexicon("ark", "ark invest", "13f")

	testCases := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "whole word only", text: "the market was dark today", expected: 0},
		{name: "phrase counted once", text: "ARK Invest bought more", expected: 1},
		{name: "separate mentions", text: "ark and 13F filings", expected: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, l.Count(tc.text))
		})
	}
}

func TestScore(t *testing.T) {
	lean := Score("Downgrade and weak guidance, investigation pending. Some upside remains.")
	assert.Equal(t, 3, lean.Bearish)
	assert.Equal(t, 1, lean.Bullish)
	assert.True(t, lean.IsBearish())
	assert.False(t, lean.IsBullish())

	tie := Score("rally then crash")
	assert.False(t, tie.IsBearish())
	assert.False(t, tie.IsBullish())
}

func TestScore_InflectedBearishWords(t *testing.T) {
	lean := Score("Analysts issued downgrades, orders are dropping, guidance cuts and warnings pile up despite a strong rally")
	assert.Equal(t, 4, lean.Bearish)
	assert.Equal(t, 2, lean.Bullish)
	assert.True(t, lean.IsBearish())
}

func TestInstitutional(t *testing.T) {
	assert.True(t, Institutional.Matches("ARK Invest added shares"))
	assert.True(t, Institutional.Matches("latest 13F filings show new positions"))
	assert.False(t, Institutional.Matches("the market was dark today"))
}
