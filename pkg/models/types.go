package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// NewDecimal creates decimal from float64
func NewDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// Round2 rounds a money or ratio value to two decimals
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
