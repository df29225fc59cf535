// Package indicators computes the technical series used by the technical
// analyst. All functions take a close-price series and return a series of
// the same length, padded with NaN where the window is not yet filled.
package indicators

import (
	"fmt"
	"math"
)

// SMA is the simple moving average over period closes.
func SMA(closes []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("invalid SMA period %d", period)
	}
	if len(closes) < period {
		return nil, fmt.Errorf("insufficient data for SMA(%d): have %d", period, len(closes))
	}

	out := nanSeries(len(closes))
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out, nil
}

// EMA is the exponential moving average seeded with the SMA of the first
// period closes.
func EMA(closes []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("invalid EMA period %d", period)
	}
	if len(closes) < period {
		return nil, fmt.Errorf("insufficient data for EMA(%d): have %d", period, len(closes))
	}

	out := nanSeries(len(closes))
	multiplier := 2.0 / (float64(period) + 1.0)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += closes[i]
	}
	ema := sum / float64(period)
	out[period-1] = ema

	for i := period; i < len(closes); i++ {
		ema = closes[i]*multiplier + ema*(1-multiplier)
		out[i] = ema
	}
	return out, nil
}

// RSI is the Wilder-smoothed relative strength index.
func RSI(closes []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("invalid RSI period %d", period)
	}
	if len(closes) < period+1 {
		return nil, fmt.Errorf("insufficient data for RSI(%d): have %d", period, len(closes))
	}

	out := nanSeries(len(closes))

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line (EMA12−EMA26), its 9-period signal line and
// the histogram.
func MACD(closes []float64) (line, signal, hist []float64, err error) {
	ema12, err := EMA(closes, 12)
	if err != nil {
		return nil, nil, nil, err
	}
	ema26, err := EMA(closes, 26)
	if err != nil {
		return nil, nil, nil, err
	}

	line = nanSeries(len(closes))
	for i := range closes {
		line[i] = ema12[i] - ema26[i]
	}

	// Signal line: EMA(9) over the valid MACD region.
	signal = nanSeries(len(closes))
	valid := line[25:]
	sigValid, err := EMA(valid, 9)
	if err != nil {
		return nil, nil, nil, err
	}
	copy(signal[25:], sigValid)

	hist = nanSeries(len(closes))
	for i := range closes {
		hist[i] = line[i] - signal[i]
	}
	return line, signal, hist, nil
}

// Bollinger returns the middle band (SMA), upper and lower bands at
// stdDevs standard deviations.
func Bollinger(closes []float64, period int, stdDevs float64) (middle, upper, lower []float64, err error) {
	middle, err = SMA(closes, period)
	if err != nil {
		return nil, nil, nil, err
	}

	upper = nanSeries(len(closes))
	lower = nanSeries(len(closes))
	for i := period - 1; i < len(closes); i++ {
		var sumSq float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - middle[i]
			sumSq += d * d
		}
		sd := math.Sqrt(sumSq / float64(period))
		upper[i] = middle[i] + stdDevs*sd
		lower[i] = middle[i] - stdDevs*sd
	}
	return middle, upper, lower, nil
}

// Last returns the most recent non-NaN value of a series.
func Last(series []float64) (float64, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) {
			return series[i], true
		}
	}
	return 0, false
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
