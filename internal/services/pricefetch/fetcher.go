// Package pricefetch pulls current prices for batches of instruments.
package pricefetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
	"github.com/tptkds/assetManagement/internal/models"
)

// DefaultMaxConcurrent bounds in-flight quote requests per batch.
const DefaultMaxConcurrent = 8

// Fetcher implements interfaces.PriceFetcher over a QuoteClient.
type Fetcher struct {
	client        interfaces.QuoteClient
	logger        *common.Logger
	maxConcurrent int
	now           func() time.Time // injectable clock for testing
}

// NewFetcher creates a fetcher. maxConcurrent <= 0 uses DefaultMaxConcurrent.
func NewFetcher(client interfaces.QuoteClient, logger *common.Logger, maxConcurrent int) *Fetcher {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Fetcher{
		client:        client,
		logger:        logger,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
}

// Fetch returns one result per instrument, in input order. A failure of one
// instrument never affects the others. Instruments not started before ctx is
// done carry ctx.Err().
func (f *Fetcher) Fetch(ctx context.Context, batch []models.Instrument) []models.FetchResult {
	results := make([]models.FetchResult, len(batch))
	sem := make(chan struct{}, f.maxConcurrent)
	var wg sync.WaitGroup

	for i, inst := range batch {
		results[i].Code = inst.Code

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			for j := i; j < len(batch); j++ {
				results[j] = models.FetchResult{Code: batch[j].Code, Err: ctx.Err()}
			}
			break
		}

		wg.Add(1)
		go func(i int, inst models.Instrument) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("panic fetching %s: %v", inst.Code, r)
				}
			}()
			results[i] = f.fetchOne(ctx, inst)
		}(i, inst)
	}

	wg.Wait()
	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, inst models.Instrument) models.FetchResult {
	result := models.FetchResult{Code: inst.Code}

	quote, err := f.client.GetRealTimeQuote(ctx, inst.Ticker())
	if err != nil {
		result.Err = err
		return result
	}
	if quote == nil || quote.Close <= 0 {
		result.Err = fmt.Errorf("%s: %w", inst.Code, models.ErrNoPrice)
		return result
	}

	observed := quote.Timestamp
	if observed.IsZero() {
		observed = f.now()
	}
	result.Price = models.CurrentPrice{
		Code:       inst.Code,
		Price:      quote.Close,
		Currency:   inst.Currency,
		ObservedAt: observed,
	}
	return result
}

var _ interfaces.PriceFetcher = (*Fetcher)(nil)
