// Package riskmgr turns historical price statistics plus the debate
// outcome into a bounded risk score, a hard position-value ceiling and a
// constrained trading action.
package riskmgr

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hweilin/quantmind/consts"
	"github.com/hweilin/quantmind/models"
)

var (
	ErrNoPriceData   = errors.New("risk assessment requires price history")
	ErrMissingDebate = errors.New("risk assessment requires the debate result")
)

const (
	volWindow      = 120
	drawdownWindow = 60
	tradingDays    = 252
)

// stressScenarios are the decline shocks applied to the current position.
var stressScenarios = map[string]float64{
	"market_crash":     -0.20,
	"moderate_decline": -0.10,
	"slight_decline":   -0.05,
}

// Assess computes the risk assessment for the current state. The
// position ceiling thresholds are evaluated against the market score
// before the debate adjustments; the final capped score gates the
// trading action.
func Assess(st models.State) (models.RiskAssessment, error) {
	if st.Debate == nil {
		return models.RiskAssessment{}, ErrMissingDebate
	}
	closes := models.Closes(st.Prices)
	if len(closes) < 2 {
		return models.RiskAssessment{}, fmt.Errorf("%w: have %d closes", ErrNoPriceData, len(closes))
	}
	debate := *st.Debate

	returns := dailyReturns(closes)
	volatility := stdev(returns) * math.Sqrt(tradingDays)
	volPercentile := volatilityPercentile(returns, volatility)
	var95 := quantile(returns, 0.05)
	maxDrawdown := maxDrawdownOver(closes, drawdownWindow)

	marketScore := 0
	if volPercentile > 1.5 {
		marketScore += 2
	} else if volPercentile > 1.0 {
		marketScore++
	}
	if var95 < -0.03 {
		marketScore += 2
	} else if var95 < -0.02 {
		marketScore++
	}
	if maxDrawdown < -0.20 {
		marketScore += 2
	} else if maxDrawdown < -0.10 {
		marketScore++
	}

	// Position ceiling scales off the pre-debate market score.
	lastClose := closes[len(closes)-1]
	positionValue := float64(st.Portfolio.Shares) * lastClose
	totalValue := st.Portfolio.Cash + positionValue

	maxPosition := totalValue * consts.BasePositionRatio
	switch {
	case marketScore >= 4:
		maxPosition *= 0.5
	case marketScore >= 2:
		maxPosition *= 0.75
	}

	// Debate uncertainty adds to the score after sizing.
	score := marketScore
	if math.Abs(debate.BullConfidence-debate.BearConfidence) < 0.1 {
		score++
	}
	if debate.Confidence < 0.3 {
		score++
	}
	if score > 10 {
		score = 10
	}

	var action models.Action
	switch {
	case score >= 9:
		action = models.ActionHold
	case score >= 7:
		action = models.ActionReduce
	case debate.Signal == models.Bullish && debate.Confidence > 0.5:
		action = models.ActionBuy
	case debate.Signal == models.Bearish && debate.Confidence > 0.5:
		action = models.ActionSell
	default:
		action = models.ActionHold
	}

	stress := make(map[string]models.StressResult, len(stressScenarios))
	for scenario, decline := range stressScenarios {
		loss := positionValue * decline
		impact := math.NaN()
		if totalValue != 0 {
			impact = loss / totalValue
		}
		stress[scenario] = models.StressResult{
			PotentialLoss:   loss,
			PortfolioImpact: impact,
		}
	}

	return models.RiskAssessment{
		RiskScore:        score,
		MarketRiskScore:  marketScore,
		MaxPositionValue: maxPosition,
		TradingAction:    action,
		Metrics: models.RiskMetrics{
			Volatility:           volatility,
			VolatilityPercentile: volPercentile,
			ValueAtRisk95:        var95,
			MaxDrawdown:          maxDrawdown,
		},
		StressResults: stress,
		Reasoning: fmt.Sprintf("Risk Score %d/10: Market Risk=%d, Volatility=%.2f%%, VaR=%.2f%%, "+
			"Max Drawdown=%.2f%%, Debate Signal=%s",
			score, marketScore, volatility*100, var95*100, maxDrawdown*100, debate.Signal),
	}, nil
}

func dailyReturns(closes []float64) []float64 {
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns
}

// stdev is the sample standard deviation.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}

// volatilityPercentile is the z-score of the current annualized
// volatility against the rolling 120-day volatility distribution. With
// less history than the window, or a degenerate distribution, it falls
// back to 0.
func volatilityPercentile(returns []float64, volatility float64) float64 {
	if len(returns) < volWindow {
		return 0
	}

	rolling := make([]float64, 0, len(returns)-volWindow+1)
	for i := volWindow; i <= len(returns); i++ {
		rolling = append(rolling, stdev(returns[i-volWindow:i])*math.Sqrt(tradingDays))
	}

	var sum float64
	for _, v := range rolling {
		sum += v
	}
	mean := sum / float64(len(rolling))
	sd := stdev(rolling)
	if sd == 0 {
		return 0
	}
	return (volatility - mean) / sd
}

// quantile computes the q-th quantile with linear interpolation between
// order statistics.
func quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// maxDrawdownOver is the worst close relative to its rolling window
// maximum, evaluated once the window is full. A series shorter than the
// window reports 0.
func maxDrawdownOver(closes []float64, window int) float64 {
	if len(closes) < window {
		return 0
	}

	worst := 0.0
	for i := window - 1; i < len(closes); i++ {
		peak := closes[i]
		for j := i - window + 1; j <= i; j++ {
			if closes[j] > peak {
				peak = closes[j]
			}
		}
		if peak == 0 {
			continue
		}
		dd := closes[i]/peak - 1
		if dd < worst {
			worst = dd
		}
	}
	return worst
}
