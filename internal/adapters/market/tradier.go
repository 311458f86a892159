package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/selivandex/rally-radar/internal/adapters/config"
	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/models"
)

const dateLayout = "2006-01-02"

// ErrNotFound is returned when the provider has no data for a symbol
var ErrNotFound = errors.New("symbol not found")

// TradierClient implements DataProvider against a Tradier-compatible REST API.
// Every request waits on a shared limiter, so calls are serialized at the configured rate.
type TradierClient struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
	log     *zap.Logger
}

// NewTradierClient creates new market data client
func NewTradierClient(cfg config.MarketConfig) *TradierClient {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &TradierClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		now:     time.Now,
		log:     logger.Named("market.tradier"),
	}
}

// GetQuote returns the current quote for one ticker
func (c *TradierClient) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	var resp struct {
		Quotes struct {
			Quote oneOrMany[tradierQuote] `json:"quote"`
		} `json:"quotes"`
	}

	params := url.Values{"symbols": {strings.ToUpper(ticker)}}
	if err := c.get(ctx, "/v1/markets/quotes", params, &resp); err != nil {
		return nil, fmt.Errorf("quote %s: %w", ticker, err)
	}

	for _, q := range resp.Quotes.Quote {
		if strings.EqualFold(q.Symbol, ticker) && q.Last > 0 {
			return q.toModel(), nil
		}
	}

	return nil, fmt.Errorf("quote %s: %w", ticker, ErrNotFound)
}

// GetQuotes fetches tickers one at a time; failed tickers are omitted.
func (c *TradierClient) GetQuotes(ctx context.Context, tickers []string) (map[string]*models.Quote, error) {
	quotes := make(map[string]*models.Quote, len(tickers))
	var errs []error

	for _, ticker := range tickers {
		q, err := c.GetQuote(ctx, ticker)
		if err != nil {
			c.log.Warn("quote lookup failed", zap.String("ticker", ticker), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		quotes[ticker] = q
	}

	return quotes, errors.Join(errs...)
}

// GetExpirations lists option expirations with days to expiration from today
func (c *TradierClient) GetExpirations(ctx context.Context, ticker string) ([]models.Expiration, error) {
	var resp struct {
		Expirations *struct {
			Date oneOrMany[string] `json:"date"`
		} `json:"expirations"`
	}

	params := url.Values{"symbol": {strings.ToUpper(ticker)}}
	if err := c.get(ctx, "/v1/markets/options/expirations", params, &resp); err != nil {
		return nil, fmt.Errorf("expirations %s: %w", ticker, err)
	}
	if resp.Expirations == nil {
		return nil, nil
	}

	today := truncateDay(c.now())
	out := make([]models.Expiration, 0, len(resp.Expirations.Date))
	for _, d := range resp.Expirations.Date {
		date, err := time.Parse(dateLayout, d)
		if err != nil {
			continue
		}
		out = append(out, models.Expiration{
			Date:             date,
			DaysToExpiration: int(math.Round(date.Sub(today).Hours() / 24)),
		})
	}

	return out, nil
}

// GetChain returns the option chain for one expiration
func (c *TradierClient) GetChain(ctx context.Context, ticker string, expiration time.Time, withGreeks bool) ([]models.OptionContract, error) {
	var resp struct {
		Options *struct {
			Option oneOrMany[tradierOption] `json:"option"`
		} `json:"options"`
	}

	params := url.Values{
		"symbol":     {strings.ToUpper(ticker)},
		"expiration": {expiration.Format(dateLayout)},
		"greeks":     {fmt.Sprintf("%t", withGreeks)},
	}
	if err := c.get(ctx, "/v1/markets/options/chains", params, &resp); err != nil {
		return nil, fmt.Errorf("chain %s: %w", ticker, err)
	}
	if resp.Options == nil {
		return nil, nil
	}

	out := make([]models.OptionContract, 0, len(resp.Options.Option))
	for _, o := range resp.Options.Option {
		out = append(out, o.toModel())
	}
	return out, nil
}

func (c *TradierClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type tradierQuote struct {
	Symbol    string  `json:"symbol"`
	Last      float64 `json:"last"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_percentage"`
	Volume    int64   `json:"volume"`
	TradeDate int64   `json:"trade_date"`
}

func (q tradierQuote) toModel() *models.Quote {
	ts := time.Now()
	if q.TradeDate > 0 {
		ts = time.UnixMilli(q.TradeDate)
	}
	return &models.Quote{
		Symbol:    strings.ToUpper(q.Symbol),
		Price:     q.Last,
		Bid:       q.Bid,
		Ask:       q.Ask,
		Change:    q.Change,
		ChangePct: q.ChangePct,
		Volume:    q.Volume,
		Timestamp: ts,
	}
}

type tradierOption struct {
	Symbol         string  `json:"symbol"`
	Strike         float64 `json:"strike"`
	OptionType     string  `json:"option_type"`
	ExpirationDate string  `json:"expiration_date"`
	Bid            float64 `json:"bid"`
	Ask            float64 `json:"ask"`
	Last           float64 `json:"last"`
	OpenInterest   int64   `json:"open_interest"`
	Volume         int64   `json:"volume"`
	Greeks         *struct {
		Delta *float64 `json:"delta"`
		Gamma float64  `json:"gamma"`
		Theta float64  `json:"theta"`
		Vega  float64  `json:"vega"`
		MidIV float64  `json:"mid_iv"`
	} `json:"greeks"`
}

func (o tradierOption) toModel() models.OptionContract {
	expiration, _ := time.Parse(dateLayout, o.ExpirationDate)
	contract := models.OptionContract{
		Symbol:       o.Symbol,
		Type:         models.OpportunityType(strings.ToLower(o.OptionType)),
		Strike:       o.Strike,
		Expiration:   expiration,
		Bid:          o.Bid,
		Ask:          o.Ask,
		Last:         o.Last,
		OpenInterest: o.OpenInterest,
		Volume:       o.Volume,
	}
	if o.Greeks != nil {
		contract.Delta = o.Greeks.Delta
		contract.Gamma = o.Greeks.Gamma
		contract.Theta = o.Greeks.Theta
		contract.Vega = o.Greeks.Vega
		contract.ImpliedVolatility = o.Greeks.MidIV
	}
	return contract
}

// oneOrMany decodes fields the API sends as a single object when there is one
// element, an array otherwise, and null when empty.
type oneOrMany[T any] []T

func (m *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*m = nil
		return nil
	}
	if data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*m = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*m = []T{one}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
