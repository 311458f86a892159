package forecast

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/selivandex/rally-radar/pkg/models"
)

// rawPrediction is a forecast candidate as sent by the model, before normalization.
// Fields tolerate the type drift models commonly produce.
type rawPrediction struct {
	Sector            string      `json:"sector"`
	OpportunityType   string      `json:"opportunityType"`
	Direction         string      `json:"direction"`
	Confidence        flexInt     `json:"confidence"`
	Timeframe         string      `json:"timeframe"`
	EarlySignals      flexStrings `json:"earlySignals"`
	RecommendedStocks flexStrings `json:"recommendedStocks"`
	Reasoning         string      `json:"reasoning"`
	EntryTiming       string      `json:"entryTiming"`
	ExitStrategy      string      `json:"exitStrategy"`
}

type rawResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
}

// flexInt accepts 72, 72.4 or "72"
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	s = strings.TrimSuffix(s, "%")
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(math.Round(v))
	return nil
}

// flexStrings accepts ["a","b"] or "a, b"
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = nil
		return nil
	}
	if data[0] == '[' {
		var many []string
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*f = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*f = strings.Split(one, ",")
	return nil
}

var opportunitySynonyms = map[string]models.OpportunityType{
	"call":    models.OpportunityCall,
	"calls":   models.OpportunityCall,
	"bullish": models.OpportunityCall,
	"long":    models.OpportunityCall,
	"buy":     models.OpportunityCall,
	"put":     models.OpportunityPut,
	"puts":    models.OpportunityPut,
	"bearish": models.OpportunityPut,
	"short":   models.OpportunityPut,
	"sell":    models.OpportunityPut,
}

var directionSynonyms = map[string]models.OpportunityType{
	"up":       models.OpportunityCall,
	"upside":   models.OpportunityCall,
	"bullish":  models.OpportunityCall,
	"down":     models.OpportunityPut,
	"downside": models.OpportunityPut,
	"bearish":  models.OpportunityPut,
}

// normalize converts a raw candidate into a RallyPrediction. Unknown option
// types stay empty so validation drops the candidate. Direction always
// follows the option type.
func normalize(r rawPrediction) models.RallyPrediction {
	key := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

	opType := opportunitySynonyms[key(r.OpportunityType)]
	if opType == "" {
		// Some responses only carry a direction
		opType = directionSynonyms[key(r.Direction)]
	}

	var direction models.Direction
	if opType != "" {
		direction = models.DirectionFor(opType)
	}

	confidence := int(r.Confidence)
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return models.RallyPrediction{
		Sector:            strings.TrimSpace(r.Sector),
		OpportunityType:   opType,
		Direction:         direction,
		Confidence:        confidence,
		Timeframe:         normalizeTimeframe(r.Timeframe),
		EarlySignals:      cleanStrings(r.EarlySignals),
		RecommendedStocks: normalizeTickers(r.RecommendedStocks),
		Reasoning:         strings.TrimSpace(r.Reasoning),
		EntryTiming:       strings.TrimSpace(r.EntryTiming),
		ExitStrategy:      strings.TrimSpace(r.ExitStrategy),
	}
}

func normalizeTimeframe(tf string) string {
	tf = strings.ToLower(strings.TrimSpace(tf))
	tf = strings.NewReplacer("–", "-", "—", "-", " - ", "-", "to", "-").Replace(tf)
	tf = strings.Join(strings.Fields(tf), " ")
	tf = strings.ReplaceAll(tf, " -", "-")
	tf = strings.ReplaceAll(tf, "- ", "-")

	for _, known := range models.Timeframes {
		if tf == known {
			return known
		}
	}
	return models.Timeframe1to2Months
}

func normalizeTickers(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "$")))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
