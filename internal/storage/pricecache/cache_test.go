package pricecache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/models"
	"github.com/tptkds/assetManagement/internal/storage/badger"
)

func newTestCache(t *testing.T) (*Cache, *badger.KVCache) {
	t.Helper()
	logger := common.NewSilentLogger()
	store, err := badger.NewStore(logger, "", true)
	require.NoError(t, err)
	kv := badger.NewKVCache(store, logger)
	t.Cleanup(func() { kv.Close() })
	return New(kv, logger), kv
}

func TestCurrentPrices_RoundTripAndMisses(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	observed := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	require.NoError(t, cache.SaveCurrentPrice(ctx, models.CurrentPrice{
		Code: "AAPL", Price: 150, Currency: "USD", ObservedAt: observed,
	}, time.Minute))

	prices, err := cache.GetCurrentPrices(ctx, []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, 150.0, prices["AAPL"].Price)
	assert.Equal(t, "USD", prices["AAPL"].Currency)
	assert.True(t, prices["AAPL"].ObservedAt.Equal(observed))
	_, ok := prices["MSFT"]
	assert.False(t, ok)
}

func TestCurrentPrices_EmptyCodes(t *testing.T) {
	cache, _ := newTestCache(t)

	prices, err := cache.GetCurrentPrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestCurrentPrices_MalformedEntry(t *testing.T) {
	cache, kv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, kv.Save(ctx, CurrentPriceKey("AAPL"), []byte("not-json"), time.Minute))

	_, err := cache.GetCurrentPrices(ctx, []string{"AAPL"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "realtime_stock:AAPL")
}

func TestExchangeRates(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	rates, err := cache.GetExchangeRates(ctx)
	require.NoError(t, err)
	assert.Empty(t, rates)

	require.NoError(t, cache.SaveExchangeRates(ctx, models.ExchangeRateMap{"KRW": 1, "USD": 1350.5}, time.Hour))

	rates, err = cache.GetExchangeRates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1350.5, rates["USD"])
	assert.Equal(t, 1.0, rates["KRW"])
}

func TestExchangeRateObservations(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	observed, err := cache.GetExchangeRateObservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, observed)

	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, cache.SaveExchangeRateObservations(ctx, models.RateObservations{"USD": at}))

	observed, err = cache.GetExchangeRateObservations(ctx)
	require.NoError(t, err)
	assert.True(t, observed["USD"].Equal(at))
}

func TestMarketIndices_Aligned(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveMarketIndex(ctx, models.MarketIndexNASDAQ, models.MarketIndexSnapshot{
		IndexName: "NASDAQ", CurrentValue: 16000, ChangePercent: 1.2, ProfitStatus: models.ProfitStatusPlus,
	}, time.Minute))

	snapshots, err := cache.GetMarketIndices(ctx, []models.MarketIndex{models.MarketIndexKOSPI, models.MarketIndexNASDAQ})
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Nil(t, snapshots[0])
	require.NotNil(t, snapshots[1])
	assert.Equal(t, 16000.0, snapshots[1].CurrentValue)
	assert.Equal(t, models.ProfitStatusPlus, snapshots[1].ProfitStatus)
}

func TestTodayTipID(t *testing.T) {
	cache, kv := newTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.GetTodayTipID(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SaveTodayTipID(ctx, 7, time.Hour))
	id, ok, err := cache.GetTodayTipID(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	require.NoError(t, kv.Save(ctx, "tip_today_id", []byte("seven"), time.Hour))
	_, _, err = cache.GetTodayTipID(ctx)
	assert.Error(t, err)
}
