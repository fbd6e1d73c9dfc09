package valuation

import (
	"sort"

	"github.com/tptkds/assetManagement/internal/models"
)

// FindMissing returns the sorted, unique codes of holdings lacking either the
// daily record at their purchase date or a current price.
func FindMissing(daily models.DailyPriceMap, current models.CurrentPriceMap, holdings []models.Holding) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, h := range holdings {
		if seen[h.Code] {
			continue
		}
		_, hasDaily := daily[h.DailyKey()]
		_, hasCurrent := current[h.Code]
		if hasDaily && hasCurrent {
			continue
		}
		seen[h.Code] = true
		missing = append(missing, h.Code)
	}
	sort.Strings(missing)
	return missing
}

func uniqueSorted(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
