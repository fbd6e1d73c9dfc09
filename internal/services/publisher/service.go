// Package publisher writes the exchange rate map, index snapshots and the
// daily tip pointer into the market cache.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
	"github.com/tptkds/assetManagement/internal/models"
)

// Service publishes market data other than real-time stock prices.
type Service struct {
	quotes interfaces.QuoteClient
	assets interfaces.AssetStore
	cache  interfaces.MarketCache
	logger *common.Logger
	config common.PublisherConfig
	base   string
	loc    *time.Location
	now    func() time.Time // injectable clock for testing
}

// NewService creates a publisher for the configured base currency and timezone.
func NewService(quotes interfaces.QuoteClient, assets interfaces.AssetStore, cache interfaces.MarketCache, logger *common.Logger, config *common.Config) *Service {
	return &Service{
		quotes: quotes,
		assets: assets,
		cache:  cache,
		logger: logger,
		config: config.Publisher,
		base:   config.BaseCurrency,
		loc:    config.Location(),
		now:    time.Now,
	}
}

// Run publishes immediately and then on every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	interval := s.config.GetInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", interval).Msg("Market data publisher started")
	s.publishAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Market data publisher stopped")
			return
		case <-ticker.C:
			s.publishAndLog(ctx)
		}
	}
}

func (s *Service) publishAndLog(ctx context.Context) {
	if err := s.PublishAll(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn().Err(err).Msg("Market data publish incomplete")
	}
}

// PublishAll runs every publisher; one failing does not stop the others.
func (s *Service) PublishAll(ctx context.Context) error {
	return errors.Join(
		s.PublishExchangeRates(ctx),
		s.PublishIndices(ctx),
		s.PublishTodayTip(ctx),
	)
}

// PublishExchangeRates quotes every configured currency against the base
// currency. A currency whose quote fails keeps its previous rate only while
// that rate is younger than common.FreshnessExchangeRates; after that it is
// dropped from the map.
func (s *Service) PublishExchangeRates(ctx context.Context) error {
	previous, err := s.cache.GetExchangeRates(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Ignoring unreadable cached exchange rates")
		previous = models.ExchangeRateMap{}
	}
	observed, err := s.cache.GetExchangeRateObservations(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Ignoring unreadable exchange rate observations")
		observed = models.RateObservations{}
	}

	now := s.now()
	rates := models.ExchangeRateMap{s.base: 1}
	var errs []error
	for _, currency := range s.config.Currencies {
		currency = strings.ToUpper(strings.TrimSpace(currency))
		if currency == "" || currency == s.base {
			continue
		}
		if money.GetCurrency(currency) == nil {
			errs = append(errs, fmt.Errorf("unknown currency %q", currency))
			continue
		}

		quote, err := s.quotes.GetRealTimeQuote(ctx, models.ForexTicker(currency, s.base))
		if err == nil && (quote == nil || quote.Close <= 0) {
			err = models.ErrNoPrice
		}
		if err == nil {
			rates[currency] = quote.Close
			observed[currency] = now
			continue
		}

		errs = append(errs, fmt.Errorf("%s: %w", currency, err))
		rate, ok := previous[currency]
		at, seen := observed[currency]
		if ok && seen && now.Sub(at) < common.FreshnessExchangeRates {
			rates[currency] = rate
			continue
		}
		delete(observed, currency)
		if ok {
			s.logger.Warn().Str("currency", currency).Time("observed_at", at).Msg("Dropping stale exchange rate")
		}
	}

	if err := s.cache.SaveExchangeRates(ctx, rates, common.FreshnessExchangeRates); err != nil {
		return fmt.Errorf("save exchange rates: %w", err)
	}
	if err := s.cache.SaveExchangeRateObservations(ctx, observed); err != nil {
		errs = append(errs, fmt.Errorf("save exchange rate observations: %w", err))
	}
	s.logger.Debug().Int("currencies", len(rates)).Msg("Exchange rates published")
	return errors.Join(errs...)
}

// PublishIndices snapshots every configured index.
func (s *Service) PublishIndices(ctx context.Context) error {
	var errs []error
	for _, name := range s.config.Indices {
		index, ok := models.ParseMarketIndex(name)
		if !ok {
			errs = append(errs, &models.UnknownIndexError{Names: []string{name}})
			continue
		}

		quote, err := s.quotes.GetRealTimeQuote(ctx, index.Ticker())
		if err == nil && (quote == nil || quote.Close <= 0) {
			err = models.ErrNoPrice
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", index, err))
			continue
		}

		snapshot := models.MarketIndexSnapshot{
			IndexName:     string(index),
			CurrentValue:  quote.Close,
			ChangePercent: quote.ChangePct,
			ProfitStatus:  models.ProfitStatusOf(quote.ChangePct),
		}
		if err := s.cache.SaveMarketIndex(ctx, index, snapshot, common.FreshnessMarketIndex); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", index, err))
		}
	}
	return errors.Join(errs...)
}

// PublishTodayTip picks today's tip when none is cached. The pick rotates
// through the stored tips by day and expires at the next local midnight.
func (s *Service) PublishTodayTip(ctx context.Context) error {
	if _, ok, err := s.cache.GetTodayTipID(ctx); err == nil && ok {
		return nil
	}

	ids, err := s.assets.ListTipIDs(ctx)
	if err != nil {
		return fmt.Errorf("list tips: %w", err)
	}
	if len(ids) == 0 {
		s.logger.Debug().Msg("No tips stored; skipping today's tip")
		return nil
	}

	now := s.now()
	id := PickTipID(ids, now.In(s.loc))
	if err := s.cache.SaveTodayTipID(ctx, id, common.UntilNextMidnight(now, s.loc)); err != nil {
		return fmt.Errorf("save today's tip id: %w", err)
	}
	s.logger.Info().Int64("tip_id", id).Msg("Today's tip published")
	return nil
}

// PickTipID returns the tip for the calendar day of today. ids must be non-empty.
func PickTipID(ids []int64, today time.Time) int64 {
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
	return ids[int(day%int64(len(ids)))]
}
