package market

import (
	"context"
	"time"

	"github.com/selivandex/rally-radar/pkg/models"
)

// QuoteProvider provides live quotes for underlyings
type QuoteProvider interface {
	// GetQuote returns the current quote for one ticker
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)

	// GetQuotes returns quotes for the tickers it could resolve. A non-nil
	// error may accompany a partial map.
	GetQuotes(ctx context.Context, tickers []string) (map[string]*models.Quote, error)
}

// OptionsProvider provides option expirations and chains
type OptionsProvider interface {
	GetExpirations(ctx context.Context, ticker string) ([]models.Expiration, error)
	GetChain(ctx context.Context, ticker string, expiration time.Time, withGreeks bool) ([]models.OptionContract, error)
}

// DataProvider is a full market data source
type DataProvider interface {
	QuoteProvider
	OptionsProvider
}
