// Package common provides shared utilities for the asset server
package common

import "time"

// Freshness TTLs for cached market data
const (
	FreshnessRealTimePrice = 10 * time.Minute
	FreshnessExchangeRates = 1 * time.Hour
	FreshnessMarketIndex   = 15 * time.Minute
)

// UntilNextMidnight returns the time left before the next local midnight in loc.
// The daily tip expires there so "today" always follows the configured timezone.
func UntilNextMidnight(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return midnight.Sub(local)
}
