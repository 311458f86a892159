package sentiment

// Bearish is the vocabulary that marks a thesis as pointing down
var Bearish = NewLexicon(
	"bearish", "downside", "decline", "downgrade", "weakness", "weak", "negative",
	"shutdown", "risk-off", "puts", "short", "shorting", "falling", "drop", "crash",
	"sell", "exits", "failure", "worst", "headwind", "threat", "investigation",
	"warning", "cut", "breakdown",
)

// Bullish is the vocabulary that marks a thesis as pointing up
var Bullish = NewLexicon(
	"bullish", "upside", "rally", "upgrade", "strength", "strong", "positive",
	"breakthrough", "buying", "breakout", "surge", "gain", "approval", "rising",
	"growth", "opportunity", "momentum",
)

// Institutional flags coverage of fund or institutional accumulation
var Institutional = NewWordLexicon(
	"ark", "ark invest", "cathie wood", "13f", "13-f", "fund buying", "institutional buying",
	"institutional investors", "hedge fund", "stake", "accumulating", "accumulation",
)

// Lean compares bullish and bearish keyword counts in text
type Lean struct {
	Bullish int
	Bearish int
}

// Score counts directional keywords in text
func Score(text string) Lean {
	return Lean{
		Bullish: Bullish.Count(text),
		Bearish: Bearish.Count(text),
	}
}

// IsBearish reports a strict bearish majority
func (l Lean) IsBearish() bool {
	return l.Bearish > l.Bullish
}

// IsBullish reports a strict bullish majority
func (l Lean) IsBullish() bool {
	return l.Bullish > l.Bearish
}
