package models

import "time"

// Quote is a live quote for an underlying
type Quote struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"changePct"`
	Volume    int64     `json:"volume"`
}

// Expiration is an available option expiration date
type Expiration struct {
	Date             time.Time `json:"date"`
	DaysToExpiration int       `json:"daysToExpiration"`
}

// OptionContract is one row of an option chain
type OptionContract struct {
	Expiration        time.Time       `json:"expiration"`
	Delta             *float64        `json:"delta,omitempty"`
	Symbol            string          `json:"symbol"`
	Type              OpportunityType `json:"type"`
	Strike            float64         `json:"strike"`
	Bid               float64         `json:"bid"`
	Ask               float64         `json:"ask"`
	Last              float64         `json:"last"`
	Theta             float64         `json:"theta"`
	Gamma             float64         `json:"gamma"`
	Vega              float64         `json:"vega"`
	ImpliedVolatility float64         `json:"impliedVolatility"`
	OpenInterest      int64           `json:"openInterest"`
	Volume            int64           `json:"volume"`
}

// OptionRecommendation is a concrete contract chosen for a prediction.
// Numeric fields always come from the deterministic computation.
type OptionRecommendation struct {
	Contract             *OptionContract  `json:"contract,omitempty"`
	Ticker               string           `json:"ticker"`
	Strategy             string           `json:"strategy"`
	EntryPlan            string           `json:"entryPlan"`
	ExitPlan             string           `json:"exitPlan"`
	RiskNotes            string           `json:"riskNotes"`
	AlternativeContracts []OptionContract `json:"alternativeContracts"`
	CurrentPrice         float64          `json:"currentPrice"`
	Premium              float64          `json:"premium"`
	Cost                 float64          `json:"cost"`
	BreakEven            float64          `json:"breakEven"`
	ProbabilityOfProfit  int              `json:"probabilityOfProfit"`
	DaysToExpiration     int              `json:"daysToExpiration"`
	LiveData             bool             `json:"liveData"`
}
