// Package chart serves the portfolio summary and market widgets.
package chart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
	"github.com/tptkds/assetManagement/internal/models"
	"github.com/tptkds/assetManagement/internal/services/valuation"
)

// Service implements interfaces.ChartService
type Service struct {
	assets      interfaces.AssetStore
	cache       interfaces.MarketCache
	logger      *common.Logger
	base        string
	loc         *time.Location
	dummyUserID int64
	now         func() time.Time // injectable clock for testing
}

// NewService creates a chart service.
func NewService(storage interfaces.StorageManager, logger *common.Logger, config *common.Config) *Service {
	return &Service{
		assets:      storage.AssetStore(),
		cache:       storage.MarketCache(),
		logger:      logger,
		base:        config.BaseCurrency,
		loc:         config.Location(),
		dummyUserID: config.DummyUserID,
		now:         time.Now,
	}
}

// ComputeSummary values the user's stock holdings. Any holding without a
// purchase-date record or a current price rejects the whole computation with
// *models.DataGapError.
func (s *Service) ComputeSummary(ctx context.Context, userID int64) (*models.Summary, error) {
	holdings, err := s.assets.GetHoldingsWithDetails(ctx, userID, models.AssetTypeStock)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	if len(holdings) == 0 {
		return models.EmptySummary(), nil
	}

	in, err := s.loadInputs(ctx, holdings)
	if err != nil {
		return nil, err
	}

	if missing := valuation.FindMissing(in.Daily, in.Current, holdings); len(missing) > 0 {
		s.logger.Warn().Int64("user_id", userID).Strs("codes", missing).Msg("Summary rejected: price data missing")
		return nil, &models.DataGapError{Codes: missing}
	}

	return valuation.Compute(in, s.now().In(s.loc))
}

// ComputeDummySummary values the demo identity's holdings.
func (s *Service) ComputeDummySummary(ctx context.Context) (*models.Summary, error) {
	return s.ComputeSummary(ctx, s.dummyUserID)
}

// loadInputs reads daily records, exchange rates and current prices
// concurrently. All three must succeed.
func (s *Service) loadInputs(ctx context.Context, holdings []models.Holding) (valuation.Inputs, error) {
	in := valuation.Inputs{Holdings: holdings}

	keys := make([]models.DailyKey, len(holdings))
	codes := make([]string, 0, len(holdings))
	seen := make(map[string]bool, len(holdings))
	for i, h := range holdings {
		keys[i] = h.DailyKey()
		if !seen[h.Code] {
			seen[h.Code] = true
			codes = append(codes, h.Code)
		}
	}

	var wg sync.WaitGroup
	var dailyErr, ratesErr, currentErr error

	wg.Add(3)
	go func() {
		defer wg.Done()
		var records []models.DailyPriceRecord
		records, dailyErr = s.assets.GetDailyRecords(ctx, keys)
		in.Daily = models.NewDailyPriceMap(records)
	}()
	go func() {
		defer wg.Done()
		in.Rates, ratesErr = s.cache.GetExchangeRates(ctx)
	}()
	go func() {
		defer wg.Done()
		in.Current, currentErr = s.cache.GetCurrentPrices(ctx, codes)
	}()
	wg.Wait()

	if dailyErr != nil {
		return in, fmt.Errorf("load daily records: %w", dailyErr)
	}
	if ratesErr != nil {
		return in, fmt.Errorf("load exchange rates: %w", ratesErr)
	}
	if currentErr != nil {
		return in, fmt.Errorf("load current prices: %w", currentErr)
	}

	if in.Rates == nil {
		in.Rates = models.ExchangeRateMap{}
	}
	in.Rates[s.base] = 1
	return in, nil
}

// GetIndices returns the cached snapshot of every named index. Unknown names
// fail with *models.UnknownIndexError, uncached ones with *models.NotFoundError.
func (s *Service) GetIndices(ctx context.Context, names []string) (map[models.MarketIndex]models.MarketIndexSnapshot, error) {
	indices := make([]models.MarketIndex, 0, len(names))
	var unknown []string
	seen := make(map[models.MarketIndex]bool, len(names))
	for _, name := range names {
		index, ok := models.ParseMarketIndex(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if !seen[index] {
			seen[index] = true
			indices = append(indices, index)
		}
	}
	if len(unknown) > 0 {
		return nil, &models.UnknownIndexError{Names: unknown}
	}

	snapshots, err := s.cache.GetMarketIndices(ctx, indices)
	if err != nil {
		return nil, fmt.Errorf("load market indices: %w", err)
	}

	result := make(map[models.MarketIndex]models.MarketIndexSnapshot, len(indices))
	var missing []string
	for i, snapshot := range snapshots {
		if snapshot == nil {
			missing = append(missing, string(indices[i]))
			continue
		}
		result[indices[i]] = *snapshot
	}
	if len(missing) > 0 {
		return nil, &models.NotFoundError{What: "market index", Keys: missing}
	}
	return result, nil
}

// GetTodayTip resolves the cached tip id against storage.
func (s *Service) GetTodayTip(ctx context.Context) (string, error) {
	id, ok, err := s.cache.GetTodayTipID(ctx)
	if err != nil {
		return "", fmt.Errorf("load today's tip id: %w", err)
	}
	if !ok {
		return "", &models.NotFoundError{What: "today's tip id"}
	}

	tip, err := s.assets.GetTip(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", &models.NotFoundError{What: "tip", Keys: []string{strconv.FormatInt(id, 10)}}
		}
		return "", fmt.Errorf("load tip %d: %w", id, err)
	}
	return tip.Tip, nil
}

var _ interfaces.ChartService = (*Service)(nil)
