package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
	"github.com/tptkds/assetManagement/internal/models"
	"github.com/tptkds/assetManagement/internal/storage/badger"
	"github.com/tptkds/assetManagement/internal/storage/pricecache"
)

// --- Mocks ---

type mockQuoteClient struct {
	quotes map[string]*models.RealTimeQuote
	errs   map[string]error
}

func (m *mockQuoteClient) GetRealTimeQuote(_ context.Context, ticker string) (*models.RealTimeQuote, error) {
	if err := m.errs[ticker]; err != nil {
		return nil, err
	}
	if q, ok := m.quotes[ticker]; ok {
		return q, nil
	}
	return nil, errors.New("unknown ticker " + ticker)
}

// mockAssetStore serves tip ids; other methods are unused here.
type mockAssetStore struct {
	interfaces.AssetStore
	tipIDs []int64
}

func (m *mockAssetStore) ListTipIDs(_ context.Context) ([]int64, error) {
	return m.tipIDs, nil
}

func newTestService(t *testing.T, quotes *mockQuoteClient, tipIDs []int64) (*Service, *pricecache.Cache) {
	t.Helper()
	logger := common.NewSilentLogger()
	store, err := badger.NewStore(logger, "", true)
	require.NoError(t, err)
	kv := badger.NewKVCache(store, logger)
	t.Cleanup(func() { kv.Close() })
	cache := pricecache.New(kv, logger)

	config := common.NewDefaultConfig()
	config.BaseCurrency = "KRW"
	config.Timezone = "Asia/Seoul"
	config.Publisher.Currencies = []string{"USD", "JPY", "KRW"}
	config.Publisher.Indices = []string{"KOSPI", "nasdaq"}

	svc := NewService(quotes, &mockAssetStore{tipIDs: tipIDs}, cache, logger, config)
	return svc, cache
}

func TestPublishExchangeRates(t *testing.T) {
	quotes := &mockQuoteClient{quotes: map[string]*models.RealTimeQuote{
		"USDKRW.FOREX": {Close: 1350.5},
		"JPYKRW.FOREX": {Close: 9.1},
	}}
	svc, cache := newTestService(t, quotes, nil)
	ctx := context.Background()

	require.NoError(t, svc.PublishExchangeRates(ctx))

	rates, err := cache.GetExchangeRates(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeRateMap{"KRW": 1, "USD": 1350.5, "JPY": 9.1}, rates)
}

func TestPublishExchangeRates_KeepsFreshRateOnFailure(t *testing.T) {
	quotes := &mockQuoteClient{quotes: map[string]*models.RealTimeQuote{
		"USDKRW.FOREX": {Close: 1300},
		"JPYKRW.FOREX": {Close: 9.0},
	}}
	svc, cache := newTestService(t, quotes, nil)
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	require.NoError(t, svc.PublishExchangeRates(ctx))

	quotes.quotes["USDKRW.FOREX"] = &models.RealTimeQuote{Close: 1360}
	quotes.errs = map[string]error{"JPYKRW.FOREX": errors.New("timeout")}
	svc.now = func() time.Time { return start.Add(common.FreshnessExchangeRates / 2) }

	err := svc.PublishExchangeRates(ctx)
	assert.Error(t, err)

	rates, err := cache.GetExchangeRates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1360.0, rates["USD"])
	assert.Equal(t, 9.0, rates["JPY"])
	assert.Equal(t, 1.0, rates["KRW"])

	observed, err := cache.GetExchangeRateObservations(ctx)
	require.NoError(t, err)
	assert.True(t, observed["JPY"].Equal(start), "a retained rate keeps its original observation time")
}

func TestPublishExchangeRates_DropsRateOlderThanWindow(t *testing.T) {
	quotes := &mockQuoteClient{quotes: map[string]*models.RealTimeQuote{
		"USDKRW.FOREX": {Close: 1300},
		"JPYKRW.FOREX": {Close: 9.0},
	}}
	svc, cache := newTestService(t, quotes, nil)
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	require.NoError(t, svc.PublishExchangeRates(ctx))

	quotes.errs = map[string]error{"JPYKRW.FOREX": errors.New("timeout")}
	for _, step := range []time.Duration{common.FreshnessExchangeRates / 2, common.FreshnessExchangeRates} {
		at := start.Add(step)
		svc.now = func() time.Time { return at }
		assert.Error(t, svc.PublishExchangeRates(ctx))
	}

	rates, err := cache.GetExchangeRates(ctx)
	require.NoError(t, err)
	_, ok := rates["JPY"]
	assert.False(t, ok, "a rate past the freshness window must not be republished")
	assert.Equal(t, 1300.0, rates["USD"])
	assert.Equal(t, []string{"JPY"}, rates.Missing("USD", "JPY", "KRW"))

	observed, err := cache.GetExchangeRateObservations(ctx)
	require.NoError(t, err)
	assert.NotContains(t, observed, "JPY")
}

func TestPublishExchangeRates_UnobservedRateIsDropped(t *testing.T) {
	quotes := &mockQuoteClient{
		quotes: map[string]*models.RealTimeQuote{"USDKRW.FOREX": {Close: 1360}},
		errs:   map[string]error{"JPYKRW.FOREX": errors.New("timeout")},
	}
	svc, cache := newTestService(t, quotes, nil)
	ctx := context.Background()
	require.NoError(t, cache.SaveExchangeRates(ctx, models.ExchangeRateMap{"KRW": 1, "JPY": 9.0}, time.Hour))

	assert.Error(t, svc.PublishExchangeRates(ctx))

	rates, err := cache.GetExchangeRates(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeRateMap{"KRW": 1, "USD": 1360}, rates)
}

func TestPublishIndices(t *testing.T) {
	quotes := &mockQuoteClient{quotes: map[string]*models.RealTimeQuote{
		"KS11.INDX": {Close: 2700.1, ChangePct: -0.5},
		"IXIC.INDX": {Close: 16000, ChangePct: 1.25},
	}}
	svc, cache := newTestService(t, quotes, nil)
	ctx := context.Background()

	require.NoError(t, svc.PublishIndices(ctx))

	snapshots, err := cache.GetMarketIndices(ctx, []models.MarketIndex{models.MarketIndexKOSPI, models.MarketIndexNASDAQ})
	require.NoError(t, err)
	require.NotNil(t, snapshots[0])
	require.NotNil(t, snapshots[1])
	assert.Equal(t, models.ProfitStatusMinus, snapshots[0].ProfitStatus)
	assert.Equal(t, "NASDAQ", snapshots[1].IndexName)
	assert.Equal(t, 1.25, snapshots[1].ChangePercent)
	assert.Equal(t, models.ProfitStatusPlus, snapshots[1].ProfitStatus)
}

func TestPublishTodayTip(t *testing.T) {
	svc, cache := newTestService(t, &mockQuoteClient{}, []int64{4, 8, 15})
	ctx := context.Background()
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC) }

	require.NoError(t, svc.PublishTodayTip(ctx))

	id, ok, err := cache.GetTodayTipID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, PickTipID([]int64{4, 8, 15}, svc.now().In(svc.loc)), id)

	// An existing pick is kept for the rest of the day.
	require.NoError(t, cache.SaveTodayTipID(ctx, 99, time.Hour))
	require.NoError(t, svc.PublishTodayTip(ctx))
	id, _, err = cache.GetTodayTipID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(99), id)
}

func TestPublishTodayTip_NoTips(t *testing.T) {
	svc, cache := newTestService(t, &mockQuoteClient{}, nil)
	ctx := context.Background()

	require.NoError(t, svc.PublishTodayTip(ctx))
	_, ok, err := cache.GetTodayTipID(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPickTipID_RotatesDaily(t *testing.T) {
	ids := []int64{1, 2, 3}
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	first := PickTipID(ids, day)
	assert.Equal(t, first, PickTipID(ids, day.Add(23*time.Hour)), "same day, same tip")
	assert.NotEqual(t, first, PickTipID(ids, day.AddDate(0, 0, 1)), "next day rotates")
}

func TestUntilNextMidnight_UsesConfiguredZone(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	now := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC) // 23:00 in Seoul
	assert.Equal(t, time.Hour, common.UntilNextMidnight(now, seoul))
}
