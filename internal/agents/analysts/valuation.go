package analysts

import (
	"errors"
	"fmt"
	"math"

	"github.com/hweilin/quantmind/consts"
	"github.com/hweilin/quantmind/models"
)

var ErrMissingMarketCap = errors.New("market cap unavailable")

// Valuation constants. Owner earnings discounts at the required return
// with a margin of safety; the DCF uses a lower discount rate and no
// safety margin. Both cap growth at 25% and terminal growth at
// min(0.4·g, 3%).
const (
	requiredReturn   = 0.15
	marginOfSafety   = 0.25
	discountRate     = 0.10
	forecastYears    = 5
	maxGrowthRate    = 0.25
	maxTerminalRate  = 0.03
	terminalFraction = 0.4
)

// Valuation compares two intrinsic-value estimates against market cap.
// A combined gap above +10% is bullish, below −20% bearish; confidence
// is the gap magnitude capped at 1.
func Valuation(st models.State) (models.Signal, error) {
	if st.Financials == nil {
		return models.Signal{}, ErrMissingFinancials
	}
	fin := st.Financials
	if fin.MarketCap <= 0 {
		return models.Signal{}, fmt.Errorf("%w for %s", ErrMissingMarketCap, st.Ticker)
	}

	growth := fin.Metrics.EarningsGrowth
	workingCapitalChange := fin.Current.WorkingCapital - fin.Previous.WorkingCapital

	ownerValue := OwnerEarningsValue(
		fin.Current.NetIncome,
		fin.Current.DepreciationAndAmortization,
		fin.Current.CapitalExpenditure,
		workingCapitalChange,
		growth,
	)
	dcfValue := DCFValue(fin.Current.FreeCashFlow, growth)

	ownerGap := (ownerValue - fin.MarketCap) / fin.MarketCap
	dcfGap := (dcfValue - fin.MarketCap) / fin.MarketCap
	gap := (ownerGap + dcfGap) / 2

	var direction models.Direction
	switch {
	case gap > 0.10:
		direction = models.Bullish
	case gap < -0.20:
		direction = models.Bearish
	default:
		direction = models.Neutral
	}

	return models.Signal{
		Agent:      consts.AgentValuation,
		Direction:  direction,
		Confidence: math.Min(math.Abs(gap), 1),
		Reasoning: map[string]string{
			"owner_earnings_analysis": fmt.Sprintf("%s - Owner Earnings Value: %.0f, Market Cap: %.0f, Gap: %.1f%%",
				gapDirection(ownerGap), ownerValue, fin.MarketCap, ownerGap*100),
			"dcf_analysis": fmt.Sprintf("%s - Intrinsic Value: %.0f, Market Cap: %.0f, Gap: %.1f%%",
				gapDirection(dcfGap), dcfValue, fin.MarketCap, dcfGap*100),
		},
	}, nil
}

func gapDirection(gap float64) models.Direction {
	switch {
	case gap > 0.10:
		return models.Bullish
	case gap < -0.20:
		return models.Bearish
	default:
		return models.Neutral
	}
}

// OwnerEarningsValue estimates company value from Buffett-style owner
// earnings: net income plus depreciation, less capex and the working
// capital build. Growth declines linearly over the forecast and the
// result carries the margin of safety. Non-positive owner earnings
// value at zero.
func OwnerEarningsValue(netIncome, depreciation, capex, workingCapitalChange, growthRate float64) float64 {
	ownerEarnings := netIncome + depreciation - capex - workingCapitalChange
	if ownerEarnings <= 0 {
		return 0
	}

	growthRate = clampGrowth(growthRate)

	var total, lastDiscounted float64
	for year := 1; year <= forecastYears; year++ {
		yearGrowth := growthRate * (1 - float64(year)/(2*forecastYears))
		futureValue := ownerEarnings * math.Pow(1+yearGrowth, float64(year))
		discounted := futureValue / math.Pow(1+requiredReturn, float64(year))
		total += discounted
		lastDiscounted = discounted
	}

	terminalGrowth := math.Min(growthRate*terminalFraction, maxTerminalRate)
	terminalValue := lastDiscounted * (1 + terminalGrowth) / (requiredReturn - terminalGrowth)
	total += terminalValue / math.Pow(1+requiredReturn, forecastYears)

	value := total * (1 - marginOfSafety)
	return math.Max(value, 0)
}

// DCFValue estimates intrinsic value from a five-year free cash flow
// projection plus a terminal value. Non-positive free cash flow values
// at zero.
func DCFValue(freeCashFlow, growthRate float64) float64 {
	if freeCashFlow <= 0 {
		return 0
	}

	growthRate = clampGrowth(growthRate)
	terminalGrowth := math.Min(growthRate*terminalFraction, maxTerminalRate)

	var total float64
	for year := 1; year <= forecastYears; year++ {
		futureCF := freeCashFlow * math.Pow(1+growthRate, float64(year))
		total += futureCF / math.Pow(1+discountRate, float64(year))
	}

	terminalCF := freeCashFlow * math.Pow(1+growthRate, forecastYears)
	terminalValue := terminalCF * (1 + terminalGrowth) / (discountRate - terminalGrowth)
	total += terminalValue / math.Pow(1+discountRate, forecastYears)

	return math.Max(total, 0)
}

func clampGrowth(growthRate float64) float64 {
	return math.Min(math.Max(growthRate, 0), maxGrowthRate)
}
