package analysts

import (
	"errors"
	"fmt"

	"github.com/hweilin/quantmind/consts"
	"github.com/hweilin/quantmind/models"
)

var ErrMissingFinancials = errors.New("financial data not loaded")

// Fundamentals scores profitability, growth, financial health and price
// ratios, then takes the majority across the four aspect signals.
// Confidence is the winning count over four. Zero-valued metrics read as
// "no data" and never score.
func Fundamentals(st models.State) (models.Signal, error) {
	if st.Financials == nil {
		return models.Signal{}, ErrMissingFinancials
	}
	m := st.Financials.Metrics

	reasoning := map[string]string{}
	var aspects []models.Direction

	// Profitability: strong ROE, healthy margins.
	profitability := 0
	if m.ReturnOnEquity > 0.15 {
		profitability++
	}
	if m.NetMargin > 0.20 {
		profitability++
	}
	if m.OperatingMargin > 0.15 {
		profitability++
	}
	sig := scoreToDirection(profitability)
	aspects = append(aspects, sig)
	reasoning["profitability_signal"] = fmt.Sprintf(
		"%s - ROE: %.2f%%, Net Margin: %.2f%%, Op Margin: %.2f%%",
		sig, m.ReturnOnEquity*100, m.NetMargin*100, m.OperatingMargin*100)

	// Growth: 10% hurdles on revenue, earnings and book value.
	growth := 0
	if m.RevenueGrowth > 0.10 {
		growth++
	}
	if m.EarningsGrowth > 0.10 {
		growth++
	}
	if m.BookValueGrowth > 0.10 {
		growth++
	}
	sig = scoreToDirection(growth)
	aspects = append(aspects, sig)
	reasoning["growth_signal"] = fmt.Sprintf(
		"%s - Revenue Growth: %.2f%%, Earnings Growth: %.2f%%",
		sig, m.RevenueGrowth*100, m.EarningsGrowth*100)

	// Financial health: liquidity, leverage, cash conversion.
	health := 0
	if m.CurrentRatio > 1.5 {
		health++
	}
	if m.DebtToEquity > 0 && m.DebtToEquity < 0.5 {
		health++
	}
	if m.FreeCashFlowPerShare > 0 && m.EarningsPerShare > 0 &&
		m.FreeCashFlowPerShare > m.EarningsPerShare*0.8 {
		health++
	}
	sig = scoreToDirection(health)
	aspects = append(aspects, sig)
	reasoning["financial_health_signal"] = fmt.Sprintf(
		"%s - Current Ratio: %.2f, D/E: %.2f",
		sig, m.CurrentRatio, m.DebtToEquity)

	// Price ratios: cheap relative to earnings, book and sales.
	ratios := 0
	if m.PERatio > 0 && m.PERatio < 25 {
		ratios++
	}
	if m.PriceToBook > 0 && m.PriceToBook < 3 {
		ratios++
	}
	if m.PriceToSales > 0 && m.PriceToSales < 5 {
		ratios++
	}
	sig = scoreToDirection(ratios)
	aspects = append(aspects, sig)
	reasoning["price_ratios_signal"] = fmt.Sprintf(
		"%s - P/E: %.2f, P/B: %.2f, P/S: %.2f",
		sig, m.PERatio, m.PriceToBook, m.PriceToSales)

	direction, confidence := tallyVotes(aspects)
	return models.Signal{
		Agent:      consts.AgentFundamentals,
		Direction:  direction,
		Confidence: confidence,
		Reasoning:  reasoning,
	}, nil
}

// scoreToDirection maps an aspect score out of 3: two or more hits is
// bullish, zero is bearish, one is neutral.
func scoreToDirection(score int) models.Direction {
	switch {
	case score >= 2:
		return models.Bullish
	case score == 0:
		return models.Bearish
	default:
		return models.Neutral
	}
}
