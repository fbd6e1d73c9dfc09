// Package interfaces defines service contracts for the asset server
package interfaces

import (
	"context"

	"github.com/tptkds/assetManagement/internal/models"
)

// ChartService serves the portfolio overview and market widgets.
type ChartService interface {
	// ComputeSummary values the user's stock holdings.
	// Returns *models.DataGapError when any holding cannot be priced.
	ComputeSummary(ctx context.Context, userID int64) (*models.Summary, error)

	// ComputeDummySummary values the demo identity's holdings.
	ComputeDummySummary(ctx context.Context) (*models.Summary, error)

	// GetIndices returns snapshots keyed by index name.
	// Returns *models.NotFoundError naming every index absent from the cache.
	GetIndices(ctx context.Context, names []string) (map[models.MarketIndex]models.MarketIndexSnapshot, error)

	// GetTodayTip returns today's tip text.
	GetTodayTip(ctx context.Context) (string, error)
}

// PriceFetcher pulls current prices for a batch of instruments.
type PriceFetcher interface {
	Fetch(ctx context.Context, batch []models.Instrument) []models.FetchResult
}
