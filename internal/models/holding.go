// Package models defines data structures for the asset server
package models

import (
	"time"
)

// DateLayout is the calendar-date format used for purchase and trade dates.
const DateLayout = "2006-01-02"

// AssetType classifies holdings; only stocks are valued.
type AssetType string

const (
	AssetTypeStock AssetType = "stock"
)

// Holding is a user's recorded ownership of an instrument acquired on a date.
// Holdings are created and deleted elsewhere and only read here.
type Holding struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	AssetType     AssetType `json:"asset_type"`
	Code          string    `json:"code"`
	Name          string    `json:"name,omitempty"`
	Quantity      float64   `json:"quantity"`
	PurchaseDate  time.Time `json:"purchase_date"`
	PurchasePrice float64   `json:"purchase_price"`
	Currency      string    `json:"currency"`
}

// DailyKey returns the (code, purchase date) key of the holding's cost-basis record.
func (h Holding) DailyKey() DailyKey {
	return NewDailyKey(h.Code, h.PurchaseDate)
}

// DailyKey identifies a DailyPriceRecord.
type DailyKey struct {
	Code string
	Date string // YYYY-MM-DD
}

// NewDailyKey builds a key from a code and any time on the trade date.
func NewDailyKey(code string, date time.Time) DailyKey {
	return DailyKey{Code: code, Date: date.Format(DateLayout)}
}

// DailyPriceRecord is the historical close of an instrument on a trade date.
// At most one record exists per (code, date) and it is never mutated.
type DailyPriceRecord struct {
	Code       string    `json:"code"`
	TradeDate  time.Time `json:"trade_date"`
	ClosePrice float64   `json:"close_price"`
	Currency   string    `json:"currency"`
}

// Key returns the record's DailyKey.
func (r DailyPriceRecord) Key() DailyKey {
	return NewDailyKey(r.Code, r.TradeDate)
}

// DailyPriceMap indexes daily records by key.
type DailyPriceMap map[DailyKey]DailyPriceRecord

// NewDailyPriceMap indexes the given records.
func NewDailyPriceMap(records []DailyPriceRecord) DailyPriceMap {
	m := make(DailyPriceMap, len(records))
	for _, r := range records {
		m[r.Key()] = r
	}
	return m
}

// Instrument is one element of the refresh universe.
type Instrument struct {
	Code     string `json:"code" yaml:"code"`
	Name     string `json:"name,omitempty" yaml:"name"`
	Market   string `json:"market,omitempty" yaml:"market"`
	Currency string `json:"currency" yaml:"currency"`
}
