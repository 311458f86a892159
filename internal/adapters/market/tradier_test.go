package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/rally-radar/internal/adapters/config"
	"github.com/selivandex/rally-radar/pkg/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *TradierClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewTradierClient(config.MarketConfig{
		BaseURL:           srv.URL,
		Token:             "tok",
		RequestsPerSecond: 1000,
		Timeout:           time.Second,
	})
	c.now = func() time.Time { return time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC) }
	return c
}

func TestTradierClient_GetQuotes_Partial(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("symbols") {
		case "NVDA":
			_, _ = w.Write([]byte(`{"quotes":{"quote":{"symbol":"NVDA","last":140.5,"bid":140.4,"ask":140.6}}}`))
		case "AMD":
			_, _ = w.Write([]byte(`{"quotes":{"quote":[{"symbol":"AMD","last":120}]}}`))
		default:
			_, _ = w.Write([]byte(`{"quotes":{"unmatched_symbols":{"symbol":"ZZZZ"}}}`))
		}
	})

	quotes, err := c.GetQuotes(context.Background(), []string{"NVDA", "AMD", "ZZZZ"})
	assert.Error(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, 140.5, quotes["NVDA"].Price)
	assert.Equal(t, 120.0, quotes["AMD"].Price)
	assert.NotContains(t, quotes, "ZZZZ")
}

func TestTradierClient_GetExpirations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/markets/options/expirations", r.URL.Path)
		_, _ = w.Write([]byte(`{"expirations":{"date":["2025-01-17","2025-02-21","bad"]}}`))
	})

	exps, err := c.GetExpirations(context.Background(), "nvda")
	require.NoError(t, err)
	require.Len(t, exps, 2)
	assert.Equal(t, 16, exps[0].DaysToExpiration)
	assert.Equal(t, 51, exps[1].DaysToExpiration)
}

func TestTradierClient_GetExpirations_None(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"expirations":null}`))
	})

	exps, err := c.GetExpirations(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Empty(t, exps)
}

func TestTradierClient_GetChain(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("greeks"))
		assert.Equal(t, "2025-02-21", r.URL.Query().Get("expiration"))
		_, _ = w.Write([]byte(`{"options":{"option":[
			{"symbol":"NVDA250221C00140000","strike":140,"option_type":"call","expiration_date":"2025-02-21",
			 "bid":5.1,"ask":5.3,"last":5.2,"open_interest":1200,"volume":300,
			 "greeks":{"delta":0.52,"gamma":0.02,"theta":-0.08,"vega":0.2,"mid_iv":0.45}},
			{"symbol":"NVDA250221P00140000","strike":140,"option_type":"put","expiration_date":"2025-02-21",
			 "bid":4.9,"ask":5.0,"last":4.95,"open_interest":800,"volume":100,"greeks":null}
		]}}`))
	})

	chain, err := c.GetChain(context.Background(), "NVDA", time.Date(2025, 2, 21, 0, 0, 0, 0, time.UTC), true)
	require.NoError(t, err)
	require.Len(t, chain, 2)

	assert.Equal(t, models.OpportunityCall, chain[0].Type)
	require.NotNil(t, chain[0].Delta)
	assert.Equal(t, 0.52, *chain[0].Delta)
	assert.Equal(t, 0.45, chain[0].ImpliedVolatility)
	assert.Equal(t, int64(1200), chain[0].OpenInterest)

	assert.Equal(t, models.OpportunityPut, chain[1].Type)
	assert.Nil(t, chain[1].Delta)
}

func TestTradierClient_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	_, err := c.GetQuote(context.Background(), "NVDA")
	assert.ErrorContains(t, err, "401")
}
