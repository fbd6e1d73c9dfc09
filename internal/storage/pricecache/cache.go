// Package pricecache implements the typed market cache over a key-value cache.
package pricecache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
	"github.com/tptkds/assetManagement/internal/models"
)

// Cache key layout shared with every producer of market data.
const (
	currentPricePrefix = "realtime_stock:"
	marketIndexPrefix  = "market_index:"
	exchangeRateKey    = "exchange_rate_map"
	rateObservedKey    = "exchange_rate_observed_at"
	todayTipKey        = "tip_today_id"
)

// CurrentPriceKey returns the cache key of an instrument's current price.
func CurrentPriceKey(code string) string {
	return currentPricePrefix + code
}

// MarketIndexKey returns the cache key of an index snapshot.
func MarketIndexKey(name models.MarketIndex) string {
	return marketIndexPrefix + string(name)
}

// Cache implements interfaces.MarketCache.
type Cache struct {
	kv     interfaces.KeyValueCache
	logger *common.Logger
}

// New creates a typed cache over kv.
func New(kv interfaces.KeyValueCache, logger *common.Logger) *Cache {
	return &Cache{kv: kv, logger: logger}
}

// GetCurrentPrices reads every code in one batch. Codes without a live entry
// are absent from the result.
func (c *Cache) GetCurrentPrices(ctx context.Context, codes []string) (models.CurrentPriceMap, error) {
	prices := make(models.CurrentPriceMap, len(codes))
	if len(codes) == 0 {
		return prices, nil
	}

	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = CurrentPriceKey(code)
	}

	values, err := c.kv.GetMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to read current prices: %w", err)
	}

	for i, raw := range values {
		if raw == nil {
			continue
		}
		var price models.CurrentPrice
		if err := json.Unmarshal(raw, &price); err != nil {
			return nil, fmt.Errorf("malformed cache entry %s: %w", keys[i], err)
		}
		if price.Code == "" {
			price.Code = codes[i]
		}
		prices[codes[i]] = price
	}
	return prices, nil
}

// SaveCurrentPrice writes one instrument's price.
func (c *Cache) SaveCurrentPrice(ctx context.Context, price models.CurrentPrice, ttl time.Duration) error {
	return c.saveJSON(ctx, CurrentPriceKey(price.Code), price, ttl)
}

// GetExchangeRates returns the cached map, or an empty map when none is cached.
func (c *Cache) GetExchangeRates(ctx context.Context) (models.ExchangeRateMap, error) {
	raw, ok, err := c.kv.Get(ctx, exchangeRateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange rates: %w", err)
	}
	rates := make(models.ExchangeRateMap)
	if !ok {
		return rates, nil
	}
	if err := json.Unmarshal(raw, &rates); err != nil {
		return nil, fmt.Errorf("malformed cache entry %s: %w", exchangeRateKey, err)
	}
	return rates, nil
}

// SaveExchangeRates replaces the cached rate map.
func (c *Cache) SaveExchangeRates(ctx context.Context, rates models.ExchangeRateMap, ttl time.Duration) error {
	return c.saveJSON(ctx, exchangeRateKey, rates, ttl)
}

// GetExchangeRateObservations returns when each rate was last quoted, empty
// when nothing is recorded.
func (c *Cache) GetExchangeRateObservations(ctx context.Context) (models.RateObservations, error) {
	raw, ok, err := c.kv.Get(ctx, rateObservedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange rate observations: %w", err)
	}
	observed := make(models.RateObservations)
	if !ok {
		return observed, nil
	}
	if err := json.Unmarshal(raw, &observed); err != nil {
		return nil, fmt.Errorf("malformed cache entry %s: %w", rateObservedKey, err)
	}
	return observed, nil
}

// SaveExchangeRateObservations stores observation times without expiry.
func (c *Cache) SaveExchangeRateObservations(ctx context.Context, observed models.RateObservations) error {
	return c.saveJSON(ctx, rateObservedKey, observed, 0)
}

// GetMarketIndices returns snapshots aligned with names; misses are nil.
func (c *Cache) GetMarketIndices(ctx context.Context, names []models.MarketIndex) ([]*models.MarketIndexSnapshot, error) {
	snapshots := make([]*models.MarketIndexSnapshot, len(names))
	if len(names) == 0 {
		return snapshots, nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = MarketIndexKey(name)
	}

	values, err := c.kv.GetMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to read market indices: %w", err)
	}

	for i, raw := range values {
		if raw == nil {
			continue
		}
		var snapshot models.MarketIndexSnapshot
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return nil, fmt.Errorf("malformed cache entry %s: %w", keys[i], err)
		}
		snapshots[i] = &snapshot
	}
	return snapshots, nil
}

// SaveMarketIndex writes one index snapshot.
func (c *Cache) SaveMarketIndex(ctx context.Context, name models.MarketIndex, snapshot models.MarketIndexSnapshot, ttl time.Duration) error {
	return c.saveJSON(ctx, MarketIndexKey(name), snapshot, ttl)
}

// GetTodayTipID returns the cached tip id for today.
func (c *Cache) GetTodayTipID(ctx context.Context) (int64, bool, error) {
	raw, ok, err := c.kv.Get(ctx, todayTipKey)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read today's tip id: %w", err)
	}
	if !ok {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("malformed cache entry %s: %w", todayTipKey, err)
	}
	return id, true, nil
}

// SaveTodayTipID stores today's tip id.
func (c *Cache) SaveTodayTipID(ctx context.Context, id int64, ttl time.Duration) error {
	if err := c.kv.Save(ctx, todayTipKey, []byte(strconv.FormatInt(id, 10)), ttl); err != nil {
		return fmt.Errorf("failed to save today's tip id: %w", err)
	}
	return nil
}

func (c *Cache) saveJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := c.kv.Save(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

var _ interfaces.MarketCache = (*Cache)(nil)
