package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar is one daily OHLCV observation.
type PriceBar struct {
	Symbol string          `json:"symbol"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Closes extracts the close series as float64 for statistics.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close.InexactFloat64()
	}
	return out
}

// LastClose returns the most recent close, or 0 for an empty series.
func LastClose(bars []PriceBar) float64 {
	if len(bars) == 0 {
		return 0
	}
	return bars[len(bars)-1].Close.InexactFloat64()
}

// NewsArticle is one news item consumed by the sentiment analyst.
type NewsArticle struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// FinancialMetrics are the ratio/growth figures for the latest period.
// Unavailable metrics are zero; analysts treat zero as "no data" where the
// distinction matters.
type FinancialMetrics struct {
	PERatio              float64 `json:"pe_ratio"`
	PriceToBook          float64 `json:"price_to_book"`
	PriceToSales         float64 `json:"price_to_sales"`
	ReturnOnEquity       float64 `json:"return_on_equity"`
	NetMargin            float64 `json:"net_margin"`
	OperatingMargin      float64 `json:"operating_margin"`
	RevenueGrowth        float64 `json:"revenue_growth"`
	EarningsGrowth       float64 `json:"earnings_growth"`
	BookValueGrowth      float64 `json:"book_value_growth"`
	CurrentRatio         float64 `json:"current_ratio"`
	DebtToEquity         float64 `json:"debt_to_equity"`
	FreeCashFlowPerShare float64 `json:"free_cash_flow_per_share"`
	EarningsPerShare     float64 `json:"earnings_per_share"`
}

// FinancialLineItems are the statement-level figures for one period.
type FinancialLineItems struct {
	NetIncome                   float64 `json:"net_income"`
	DepreciationAndAmortization float64 `json:"depreciation_and_amortization"`
	CapitalExpenditure          float64 `json:"capital_expenditure"`
	WorkingCapital              float64 `json:"working_capital"`
	FreeCashFlow                float64 `json:"free_cash_flow"`
}

// Financials bundles everything the fundamental and valuation analysts need.
type Financials struct {
	Metrics   FinancialMetrics   `json:"metrics"`
	Current   FinancialLineItems `json:"current"`
	Previous  FinancialLineItems `json:"previous"`
	MarketCap float64            `json:"market_cap"`
	Sector    string             `json:"sector"`
}
