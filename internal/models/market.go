package models

import (
	"sort"
	"strings"
	"time"
)

// RealTimeQuote holds a live snapshot from the upstream real-time price source
type RealTimeQuote struct {
	Code          string    `json:"code"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`          // current/last price
	PreviousClose float64   `json:"previous_close"` // previous day's close
	Change        float64   `json:"change"`         // absolute change from previous close
	ChangePct     float64   `json:"change_p"`       // percentage change from previous close
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// Ticker returns the upstream symbol of the instrument, e.g. "005930.KO".
func (i Instrument) Ticker() string {
	if i.Market == "" || strings.Contains(i.Code, ".") {
		return i.Code
	}
	return i.Code + "." + i.Market
}

// CurrentPrice is a freshness-bounded price snapshot. It only lives in the cache.
type CurrentPrice struct {
	Code       string    `json:"code"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	ObservedAt time.Time `json:"observed_at"`
}

// CurrentPriceMap indexes current prices by instrument code.
type CurrentPriceMap map[string]CurrentPrice

// ExchangeRateMap maps a currency code to its rate into the base currency.
type ExchangeRateMap map[string]float64

// Missing returns the sorted currencies absent from the map.
func (m ExchangeRateMap) Missing(currencies ...string) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, c := range currencies {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if _, ok := m[c]; !ok {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	return missing
}

// RateObservations records when each exchange rate was last quoted.
type RateObservations map[string]time.Time

// ProfitStatus describes the direction of an index move.
type ProfitStatus string

const (
	ProfitStatusPlus    ProfitStatus = "plus"
	ProfitStatusMinus   ProfitStatus = "minus"
	ProfitStatusBalance ProfitStatus = "balance"
)

// ProfitStatusOf classifies a change value.
func ProfitStatusOf(change float64) ProfitStatus {
	switch {
	case change > 0:
		return ProfitStatusPlus
	case change < 0:
		return ProfitStatusMinus
	default:
		return ProfitStatusBalance
	}
}

// MarketIndexSnapshot is the cached state of one tracked market index.
type MarketIndexSnapshot struct {
	IndexName     string       `json:"index_name"`
	CurrentValue  float64      `json:"current_value"`
	ChangePercent float64      `json:"change_percent"`
	ProfitStatus  ProfitStatus `json:"profit_status"`
}

// MarketIndex names a tracked index.
type MarketIndex string

const (
	MarketIndexKOSPI    MarketIndex = "KOSPI"
	MarketIndexKOSDAQ   MarketIndex = "KOSDAQ"
	MarketIndexNASDAQ   MarketIndex = "NASDAQ"
	MarketIndexSP500    MarketIndex = "SP500"
	MarketIndexDOW      MarketIndex = "DOW"
	MarketIndexNIKKEI   MarketIndex = "NIKKEI"
	MarketIndexDAX      MarketIndex = "DAX"
	MarketIndexFTSE     MarketIndex = "FTSE"
	MarketIndexCAC      MarketIndex = "CAC"
	MarketIndexHANGSENG MarketIndex = "HANGSENG"
	MarketIndexSHANGHAI MarketIndex = "SHANGHAI"
)

// marketIndexTickers maps each tracked index to its upstream symbol.
var marketIndexTickers = map[MarketIndex]string{
	MarketIndexKOSPI:    "KS11.INDX",
	MarketIndexKOSDAQ:   "KQ11.INDX",
	MarketIndexNASDAQ:   "IXIC.INDX",
	MarketIndexSP500:    "GSPC.INDX",
	MarketIndexDOW:      "DJI.INDX",
	MarketIndexNIKKEI:   "N225.INDX",
	MarketIndexDAX:      "GDAXI.INDX",
	MarketIndexFTSE:     "FTSE.INDX",
	MarketIndexCAC:      "FCHI.INDX",
	MarketIndexHANGSENG: "HSI.INDX",
	MarketIndexSHANGHAI: "SSEC.INDX",
}

// ParseMarketIndex normalises a name and reports whether it is tracked.
func ParseMarketIndex(name string) (MarketIndex, bool) {
	idx := MarketIndex(strings.ToUpper(strings.TrimSpace(name)))
	_, ok := marketIndexTickers[idx]
	return idx, ok
}

// Ticker returns the upstream symbol of the index.
func (m MarketIndex) Ticker() string {
	return marketIndexTickers[m]
}

// ForexTicker returns the upstream symbol quoting one unit of currency in base.
func ForexTicker(currency, base string) string {
	return currency + base + ".FOREX"
}

// FetchResult is the outcome of fetching one instrument: exactly one of
// Price or Err is meaningful.
type FetchResult struct {
	Code  string
	Price CurrentPrice
	Err   error
}

// OK reports whether the fetch succeeded.
func (r FetchResult) OK() bool {
	return r.Err == nil
}
