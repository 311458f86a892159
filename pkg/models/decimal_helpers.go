package models

import "github.com/shopspring/decimal"

// ToFloat64 safely converts decimal to float64
func ToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// PricesToDecimal converts a price snapshot to decimals for storage
func PricesToDecimal(prices map[string]float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(prices))
	for ticker, price := range prices {
		out[ticker] = NewDecimal(price)
	}
	return out
}

// PricesFromDecimal converts a stored snapshot back to floats
func PricesFromDecimal(prices map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(prices))
	for ticker, price := range prices {
		out[ticker] = ToFloat64(price)
	}
	return out
}
