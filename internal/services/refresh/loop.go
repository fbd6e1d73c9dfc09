// Package refresh keeps the real-time price cache populated.
package refresh

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
	"github.com/tptkds/assetManagement/internal/models"
)

// CycleStats summarises one pass over the universe.
type CycleStats struct {
	CycleID     string
	Instruments int
	Chunks      int
	Saved       int
	Failed      int
	ChunkErrors int
}

// Loop repeatedly fetches the whole instrument universe chunk by chunk and
// writes successful prices to the cache. It is the only writer of
// real-time price entries.
type Loop struct {
	source    interfaces.InstrumentSource
	fetcher   interfaces.PriceFetcher
	cache     interfaces.MarketCache
	logger    *common.Logger
	chunkSize int
	priceTTL  time.Duration
	idleDelay time.Duration
}

// NewLoop creates a loop configured from the refresh config section.
func NewLoop(source interfaces.InstrumentSource, fetcher interfaces.PriceFetcher, cache interfaces.MarketCache, logger *common.Logger, config *common.RefreshConfig) *Loop {
	return &Loop{
		source:    source,
		fetcher:   fetcher,
		cache:     cache,
		logger:    logger,
		chunkSize: config.GetChunkSize(),
		priceTTL:  config.GetPriceTTL(),
		idleDelay: config.GetIdleDelay(),
	}
}

// Run cycles until ctx is cancelled and then returns ctx.Err(). A cycle that
// fails to load the universe, or finds it empty, is followed by the idle delay.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().
		Int("chunk_size", l.chunkSize).
		Dur("price_ttl", l.priceTTL).
		Msg("Refresh loop started")

	for {
		if err := ctx.Err(); err != nil {
			l.logger.Info().Msg("Refresh loop stopped")
			return err
		}

		stats, err := l.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			l.logger.Warn().Str("cycle", stats.CycleID).Err(err).Msg("Refresh cycle failed")
		}

		if err != nil || stats.Instruments == 0 {
			select {
			case <-ctx.Done():
			case <-time.After(l.idleDelay):
			}
		}
	}
}

// RunOnce performs a single pass over the universe. Per-instrument failures
// and failed chunks are logged and counted, never returned. The only errors
// returned are a universe load failure and cancellation between chunks.
func (l *Loop) RunOnce(ctx context.Context) (CycleStats, error) {
	stats := CycleStats{CycleID: common.NewID()}
	started := time.Now()

	universe, err := l.source.ListInstruments(ctx)
	if err != nil {
		return stats, fmt.Errorf("load instrument universe: %w", err)
	}
	stats.Instruments = len(universe)
	if len(universe) == 0 {
		l.logger.Debug().Str("cycle", stats.CycleID).Msg("Refresh universe is empty")
		return stats, nil
	}

	for start := 0; start < len(universe); start += l.chunkSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		end := start + l.chunkSize
		if end > len(universe) {
			end = len(universe)
		}

		saved, failed, err := l.processChunk(ctx, stats.CycleID, universe[start:end])
		stats.Chunks++
		stats.Saved += saved
		stats.Failed += failed
		if err != nil {
			stats.ChunkErrors++
			l.logger.Error().
				Str("cycle", stats.CycleID).
				Int("chunk_start", start).
				Err(err).
				Msg("Refresh chunk failed")
		}
	}

	l.logger.Info().
		Str("cycle", stats.CycleID).
		Int("instruments", stats.Instruments).
		Int("saved", stats.Saved).
		Int("failed", stats.Failed).
		Int("chunk_errors", stats.ChunkErrors).
		Dur("elapsed", time.Since(started)).
		Msg("Refresh cycle complete")

	return stats, nil
}

// processChunk fetches one chunk and saves each success on its own key.
// Panics are converted into a chunk error.
func (l *Loop) processChunk(ctx context.Context, cycleID string, chunk []models.Instrument) (saved, failed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().
				Str("cycle", cycleID).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in refresh chunk")
			err = fmt.Errorf("panic in refresh chunk: %v", r)
		}
	}()

	results := l.fetcher.Fetch(ctx, chunk)
	for _, result := range results {
		if !result.OK() {
			failed++
			l.logger.Debug().Str("cycle", cycleID).Str("code", result.Code).Err(result.Err).Msg("Price fetch failed")
			continue
		}
		if saveErr := l.cache.SaveCurrentPrice(ctx, result.Price, l.priceTTL); saveErr != nil {
			failed++
			l.logger.Warn().Str("cycle", cycleID).Str("code", result.Code).Err(saveErr).Msg("Failed to cache price")
			continue
		}
		saved++
	}
	return saved, failed, nil
}
