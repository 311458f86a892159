package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/models"
)

// Cache is the subset of a Redis client used for quote caching
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedQuotes decorates a QuoteProvider with a short-lived Redis cache.
// Cache failures fall through to the provider.
type CachedQuotes struct {
	next  QuoteProvider
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedQuotes wraps next with a cache
func NewCachedQuotes(next QuoteProvider, cache Cache, ttl time.Duration) *CachedQuotes {
	return &CachedQuotes{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   logger.Named("market.cache"),
	}
}

func quoteKey(ticker string) string {
	return "quote:" + strings.ToUpper(ticker)
}

// GetQuote returns a cached quote or fetches and caches it
func (c *CachedQuotes) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	if q, ok := c.lookup(ctx, ticker); ok {
		return q, nil
	}

	q, err := c.next.GetQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}
	c.store(ctx, ticker, q)
	return q, nil
}

// GetQuotes serves cached tickers and fetches the rest
func (c *CachedQuotes) GetQuotes(ctx context.Context, tickers []string) (map[string]*models.Quote, error) {
	out := make(map[string]*models.Quote, len(tickers))
	var missing []string

	for _, t := range tickers {
		if q, ok := c.lookup(ctx, t); ok {
			out[t] = q
			continue
		}
		missing = append(missing, t)
	}

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.next.GetQuotes(ctx, missing)
	for t, q := range fetched {
		out[t] = q
		c.store(ctx, t, q)
	}
	return out, err
}

func (c *CachedQuotes) lookup(ctx context.Context, ticker string) (*models.Quote, bool) {
	raw, err := c.cache.Get(ctx, quoteKey(ticker)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug("quote cache read failed", zap.String("ticker", ticker), zap.Error(err))
		}
		return nil, false
	}

	var q models.Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, false
	}
	return &q, true
}

func (c *CachedQuotes) store(ctx context.Context, ticker string, q *models.Quote) {
	data, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, quoteKey(ticker), data, c.ttl).Err(); err != nil {
		c.log.Debug("quote cache write failed", zap.String("ticker", ticker), zap.Error(fmt.Errorf("set: %w", err)))
	}
}

type cachedProvider struct {
	*CachedQuotes
	OptionsProvider
}

// WithQuoteCache caches p's quotes while passing option lookups through
func WithQuoteCache(p DataProvider, cache Cache, ttl time.Duration) DataProvider {
	return cachedProvider{
		CachedQuotes:    NewCachedQuotes(p, cache, ttl),
		OptionsProvider: p,
	}
}
