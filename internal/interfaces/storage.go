// Package interfaces defines service contracts for the asset server
package interfaces

import (
	"context"
	"time"

	"github.com/tptkds/assetManagement/internal/models"
)

// StorageManager coordinates the relational store and the price cache.
type StorageManager interface {
	AssetStore() AssetStore
	MarketCache() MarketCache

	// Lifecycle
	Close() error
}

// AssetStore is the relational store of holdings, historical closes and tips.
type AssetStore interface {
	// GetHoldingsWithDetails returns every holding of the user for the asset type,
	// with instrument details resolved.
	GetHoldingsWithDetails(ctx context.Context, userID int64, assetType models.AssetType) ([]models.Holding, error)

	// GetDailyRecords returns the records that exist for the given keys.
	// Missing keys are simply absent from the result.
	GetDailyRecords(ctx context.Context, keys []models.DailyKey) ([]models.DailyPriceRecord, error)

	// GetTip returns the tip with the given id, or an error wrapping models.ErrNotFound.
	GetTip(ctx context.Context, id int64) (*models.Tip, error)

	// ListTipIDs returns every stored tip id in ascending order.
	ListTipIDs(ctx context.Context) ([]int64, error)

	InstrumentSource

	Close() error
}

// InstrumentSource provides the refresh universe.
type InstrumentSource interface {
	// ListInstruments returns the current instrument universe.
	ListInstruments(ctx context.Context) ([]models.Instrument, error)
}

// KeyValueCache is a byte-oriented cache with per-key expiry.
// Absent and expired keys are reported as not found, never as errors.
type KeyValueCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// GetMany returns values aligned with keys; absent entries are nil.
	GetMany(ctx context.Context, keys []string) ([][]byte, error)

	// Save stores value under key; ttl <= 0 stores without expiry.
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Close() error
}

// MarketCache is the typed view of the price cache.
type MarketCache interface {
	// GetCurrentPrices returns the cached prices for codes; misses are absent from the map.
	GetCurrentPrices(ctx context.Context, codes []string) (models.CurrentPriceMap, error)
	SaveCurrentPrice(ctx context.Context, price models.CurrentPrice, ttl time.Duration) error

	// GetExchangeRates returns the cached rate map, empty when nothing is cached.
	GetExchangeRates(ctx context.Context) (models.ExchangeRateMap, error)
	SaveExchangeRates(ctx context.Context, rates models.ExchangeRateMap, ttl time.Duration) error
	GetExchangeRateObservations(ctx context.Context) (models.RateObservations, error)
	SaveExchangeRateObservations(ctx context.Context, observed models.RateObservations) error

	// GetMarketIndices returns snapshots aligned with names; misses are nil.
	GetMarketIndices(ctx context.Context, names []models.MarketIndex) ([]*models.MarketIndexSnapshot, error)
	SaveMarketIndex(ctx context.Context, name models.MarketIndex, snapshot models.MarketIndexSnapshot, ttl time.Duration) error

	// GetTodayTipID returns today's tip id and whether one is cached.
	GetTodayTipID(ctx context.Context) (int64, bool, error)
	SaveTodayTipID(ctx context.Context, id int64, ttl time.Duration) error
}
