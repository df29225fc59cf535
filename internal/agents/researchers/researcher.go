// Package researchers builds the one-sided bull and bear theses from the
// four analyst signals.
package researchers

import (
	"errors"
	"fmt"

	"github.com/hweilin/quantmind/consts"
	"github.com/hweilin/quantmind/models"
)

var ErrMissingSignal = errors.New("required analyst signal missing")

// signalOrder fixes the contribution order so both theses always carry
// exactly four points in the same sequence.
var signalOrder = []string{
	consts.AgentTechnical,
	consts.AgentFundamentals,
	consts.AgentSentiment,
	consts.AgentValuation,
}

// supportingPoints phrases an agreeing signal; hedgingPoints phrases a
// disagreeing one, always scored at the fallback confidence.
var supportingPoints = map[string]map[models.Direction]string{
	consts.AgentTechnical: {
		models.Bullish: "Technical indicators show bullish momentum",
		models.Bearish: "Technical indicators show bearish momentum",
	},
	consts.AgentFundamentals: {
		models.Bullish: "Strong fundamentals support the company",
		models.Bearish: "Weak fundamentals undermine the company",
	},
	consts.AgentSentiment: {
		models.Bullish: "Positive market sentiment",
		models.Bearish: "Negative market sentiment",
	},
	consts.AgentValuation: {
		models.Bullish: "Stock appears undervalued",
		models.Bearish: "Stock appears overvalued",
	},
}

var hedgingPoints = map[string]map[models.Direction]string{
	consts.AgentTechnical: {
		models.Bullish: "Technical indicators may be conservative, presenting buying opportunities",
		models.Bearish: "Technical rally may not be sustainable",
	},
	consts.AgentFundamentals: {
		models.Bullish: "Company fundamentals show potential for improvement",
		models.Bearish: "Current fundamentals may not withstand market challenges",
	},
	consts.AgentSentiment: {
		models.Bullish: "Market sentiment may be overly pessimistic, creating value opportunities",
		models.Bearish: "Market sentiment may be overly optimistic, indicating potential risks",
	},
	consts.AgentValuation: {
		models.Bullish: "Current valuation may not fully reflect growth potential",
		models.Bearish: "Current valuation may not fully reflect downside risks",
	},
}

// BuildThesis assembles the one-sided argument for stance from all four
// signals. An agreeing signal contributes its own confidence; a
// disagreeing one contributes a fixed hedging point at the fallback
// confidence. The thesis confidence is the mean of exactly four terms.
func BuildThesis(st models.State, stance models.Direction) (models.Thesis, error) {
	if stance != models.Bullish && stance != models.Bearish {
		return models.Thesis{}, fmt.Errorf("invalid thesis stance %q", stance)
	}

	points := make([]string, 0, len(signalOrder))
	var confidenceSum float64

	for _, agent := range signalOrder {
		sig, ok := st.SignalFor(agent)
		if !ok {
			return models.Thesis{}, fmt.Errorf("%w: %s", ErrMissingSignal, agent)
		}

		if sig.Direction == stance {
			points = append(points, fmt.Sprintf("%s with %.0f%% confidence",
				supportingPoints[agent][stance], sig.Confidence*100))
			confidenceSum += sig.Confidence
		} else {
			points = append(points, hedgingPoints[agent][stance])
			confidenceSum += consts.FallbackPointConfidence
		}
	}

	stanceWord := "Bullish"
	if stance == models.Bearish {
		stanceWord = "Bearish"
	}

	return models.Thesis{
		Stance:     stance,
		Confidence: confidenceSum / float64(len(signalOrder)),
		Points:     points,
		Reasoning: fmt.Sprintf("%s thesis based on comprehensive analysis of technical, "+
			"fundamental, sentiment, and valuation factors", stanceWord),
	}, nil
}

// Bull builds the bullish thesis.
func Bull(st models.State) (models.Thesis, error) {
	return BuildThesis(st, models.Bullish)
}

// Bear builds the bearish thesis.
func Bear(st models.State) (models.Thesis, error) {
	return BuildThesis(st, models.Bearish)
}
