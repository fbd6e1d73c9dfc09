// Package interfaces defines service contracts for the asset server
package interfaces

import (
	"context"

	"github.com/tptkds/assetManagement/internal/models"
)

// QuoteClient provides real-time quotes from the upstream market-data source
type QuoteClient interface {
	// GetRealTimeQuote retrieves the live quote for an upstream ticker
	GetRealTimeQuote(ctx context.Context, ticker string) (*models.RealTimeQuote, error)
}
