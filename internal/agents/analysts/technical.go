// Package analysts holds the four signal producers. Each is a pure
// function over the run state returning one normalized signal; the
// sentiment analyst additionally consults the completion service.
package analysts

import (
	"errors"
	"fmt"

	"github.com/hweilin/quantmind/consts"
	"github.com/hweilin/quantmind/internal/indicators"
	"github.com/hweilin/quantmind/models"
)

// minTechnicalBars covers the slowest indicator window (SMA 60).
const minTechnicalBars = 60

var ErrInsufficientPriceData = errors.New("insufficient price data")

// Technical votes across trend, momentum and band position and returns
// the majority direction. Confidence is the winning share of the three
// votes.
func Technical(st models.State) (models.Signal, error) {
	closes := models.Closes(st.Prices)
	if len(closes) < minTechnicalBars {
		return models.Signal{}, fmt.Errorf("%w: technical analysis needs %d closes, have %d",
			ErrInsufficientPriceData, minTechnicalBars, len(closes))
	}

	lastClose := closes[len(closes)-1]
	reasoning := map[string]string{}
	var votes []models.Direction

	// Trend: price against the 20- and 60-day moving averages.
	sma20, err := indicators.SMA(closes, 20)
	if err != nil {
		return models.Signal{}, err
	}
	sma60, err := indicators.SMA(closes, 60)
	if err != nil {
		return models.Signal{}, err
	}
	fast, _ := indicators.Last(sma20)
	slow, _ := indicators.Last(sma60)

	trend := models.Neutral
	switch {
	case lastClose > fast && fast > slow:
		trend = models.Bullish
	case lastClose < fast && fast < slow:
		trend = models.Bearish
	}
	votes = append(votes, trend)
	reasoning["trend_analysis"] = fmt.Sprintf("%s - close %.2f, SMA20 %.2f, SMA60 %.2f",
		trend, lastClose, fast, slow)

	// Momentum: MACD histogram sign, overridden at RSI extremes.
	_, _, hist, err := indicators.MACD(closes)
	if err != nil {
		return models.Signal{}, err
	}
	rsi14, err := indicators.RSI(closes, 14)
	if err != nil {
		return models.Signal{}, err
	}
	histLast, _ := indicators.Last(hist)
	rsiLast, _ := indicators.Last(rsi14)

	momentum := models.Neutral
	switch {
	case rsiLast > 70:
		momentum = models.Bearish
	case rsiLast < 30:
		momentum = models.Bullish
	case histLast > 0:
		momentum = models.Bullish
	case histLast < 0:
		momentum = models.Bearish
	}
	votes = append(votes, momentum)
	reasoning["momentum_indicators"] = fmt.Sprintf("%s - MACD hist %.4f, RSI(14) %.1f",
		momentum, histLast, rsiLast)

	// Band position: closes outside the Bollinger envelope mean-revert.
	_, upper, lower, err := indicators.Bollinger(closes, 20, 2)
	if err != nil {
		return models.Signal{}, err
	}
	up, _ := indicators.Last(upper)
	low, _ := indicators.Last(lower)

	bands := models.Neutral
	switch {
	case lastClose < low:
		bands = models.Bullish
	case lastClose > up:
		bands = models.Bearish
	}
	votes = append(votes, bands)
	reasoning["support_resistance"] = fmt.Sprintf("%s - close %.2f, band [%.2f, %.2f]",
		bands, lastClose, low, up)

	direction, confidence := tallyVotes(votes)
	return models.Signal{
		Agent:      consts.AgentTechnical,
		Direction:  direction,
		Confidence: confidence,
		Reasoning:  reasoning,
	}, nil
}

// tallyVotes resolves a majority direction; the confidence is the
// winning count over the total.
func tallyVotes(votes []models.Direction) (models.Direction, float64) {
	var bullish, bearish int
	for _, v := range votes {
		switch v {
		case models.Bullish:
			bullish++
		case models.Bearish:
			bearish++
		}
	}

	direction := models.Neutral
	if bullish > bearish {
		direction = models.Bullish
	} else if bearish > bullish {
		direction = models.Bearish
	}

	winner := bullish
	if bearish > winner {
		winner = bearish
	}
	return direction, float64(winner) / float64(len(votes))
}
