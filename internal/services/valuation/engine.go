// Package valuation computes portfolio metrics from holdings, prices and rates.
// Every function is pure; the reference date is always passed in.
package valuation

import (
	"time"

	"github.com/tptkds/assetManagement/internal/models"
)

// ReviewWindowDays is the trailing window of the review rate.
const ReviewWindowDays = 30

// Inputs bundles everything a summary is computed from.
type Inputs struct {
	Holdings []models.Holding
	Daily    models.DailyPriceMap
	Current  models.CurrentPriceMap
	Rates    models.ExchangeRateMap
}

// Compute builds the summary. A holding without a purchase-date record or a
// current price rejects the whole computation with *models.DataGapError.
// Amounts are truncated only after all arithmetic.
func Compute(in Inputs, today time.Time) (*models.Summary, error) {
	if len(in.Holdings) == 0 {
		return models.EmptySummary(), nil
	}
	if missing := FindMissing(in.Daily, in.Current, in.Holdings); len(missing) > 0 {
		return nil, &models.DataGapError{Codes: missing}
	}

	totalAsset, err := TotalAssetAmount(in.Holdings, in.Current, in.Rates)
	if err != nil {
		return nil, err
	}
	totalInvestment, err := TotalInvestmentAmount(in.Holdings, in.Daily, in.Rates)
	if err != nil {
		return nil, err
	}
	reviewRate, err := TodayReviewRate(in.Holdings, in.Current, in.Rates, totalAsset, today)
	if err != nil {
		return nil, err
	}

	profit := totalAsset - totalInvestment
	return &models.Summary{
		TodayReviewRate:       reviewRate,
		TotalAssetAmount:      int64(totalAsset),
		TotalInvestmentAmount: int64(totalInvestment),
		ProfitAmount:          int64(profit),
		ProfitRate:            ProfitRate(profit, totalAsset),
	}, nil
}

// TotalAssetAmount sums quantity x current price, converted per line item.
// A holding without a current price is a *models.DataGapError.
func TotalAssetAmount(holdings []models.Holding, current models.CurrentPriceMap, rates models.ExchangeRateMap) (float64, error) {
	var total float64
	var gaps, currencies []string
	for _, h := range holdings {
		price, ok := current[h.Code]
		if !ok {
			gaps = append(gaps, h.Code)
			continue
		}
		currencies = append(currencies, h.Currency, price.Currency)
		if rate, ok := rates[lineCurrency(price.Currency, h.Currency)]; ok {
			total += h.Quantity * price.Price * rate
		}
	}
	if err := lineErrors(gaps, currencies, rates); err != nil {
		return 0, err
	}
	return total, nil
}

// TotalInvestmentAmount sums quantity x close on the purchase date, converted
// per line item. A holding without that record is a *models.DataGapError.
func TotalInvestmentAmount(holdings []models.Holding, daily models.DailyPriceMap, rates models.ExchangeRateMap) (float64, error) {
	var total float64
	var gaps, currencies []string
	for _, h := range holdings {
		record, ok := daily[h.DailyKey()]
		if !ok {
			gaps = append(gaps, h.Code)
			continue
		}
		currencies = append(currencies, h.Currency, record.Currency)
		if rate, ok := rates[lineCurrency(record.Currency, h.Currency)]; ok {
			total += h.Quantity * record.ClosePrice * rate
		}
	}
	if err := lineErrors(gaps, currencies, rates); err != nil {
		return 0, err
	}
	return total, nil
}

// ProfitRate is profit as a percentage of total asset, 0 when there is no asset.
func ProfitRate(profit, totalAsset float64) float64 {
	if totalAsset == 0 {
		return 0
	}
	return profit / totalAsset * 100
}

// TodayReviewRate is the share of total asset held in positions bought within
// the trailing window. It is 100 when no holding predates the window.
func TodayReviewRate(holdings []models.Holding, current models.CurrentPriceMap, rates models.ExchangeRateMap, totalAsset float64, today time.Time) (float64, error) {
	older := HeldSince(holdings, WindowStart(today))
	if len(older) == 0 {
		return 100.0, nil
	}
	if totalAsset == 0 {
		return 0, nil
	}
	olderAsset, err := TotalAssetAmount(older, current, rates)
	if err != nil {
		return 0, err
	}
	return (totalAsset - olderAsset) / totalAsset * 100, nil
}

// WindowStart returns the calendar date ReviewWindowDays before today.
func WindowStart(today time.Time) string {
	return today.AddDate(0, 0, -ReviewWindowDays).Format(models.DateLayout)
}

// HeldSince returns holdings purchased on or before cutoff (YYYY-MM-DD).
func HeldSince(holdings []models.Holding, cutoff string) []models.Holding {
	var out []models.Holding
	for _, h := range holdings {
		if h.PurchaseDate.Format(models.DateLayout) <= cutoff {
			out = append(out, h)
		}
	}
	return out
}

// lineErrors reports gaps before missing rates. Both the holding's and the
// price's currency must be in the rate map.
func lineErrors(gaps, currencies []string, rates models.ExchangeRateMap) error {
	if len(gaps) > 0 {
		return &models.DataGapError{Codes: uniqueSorted(gaps)}
	}
	if missing := rates.Missing(currencies...); len(missing) > 0 {
		return &models.MissingRateError{Currencies: missing}
	}
	return nil
}

func lineCurrency(priceCurrency, holdingCurrency string) string {
	if priceCurrency != "" {
		return priceCurrency
	}
	return holdingCurrency
}
