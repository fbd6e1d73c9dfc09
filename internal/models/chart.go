package models

// Tip is an advisory text; the cache only holds today's tip id.
type Tip struct {
	ID  int64  `json:"id"`
	Tip string `json:"tip"`
}

// Summary is the portfolio overview returned to the request layer.
// Monetary amounts are truncated to whole base-currency units.
type Summary struct {
	TodayReviewRate       float64 `json:"today_review_rate"`
	TotalAssetAmount      int64   `json:"total_asset_amount"`
	TotalInvestmentAmount int64   `json:"total_investment_amount"`
	ProfitAmount          int64   `json:"profit_amount"`
	ProfitRate            float64 `json:"profit_rate"`
}

// EmptySummary is returned for users without holdings.
func EmptySummary() *Summary {
	return &Summary{}
}
