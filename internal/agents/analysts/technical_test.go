package analysts

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hweilin/quantmind/models"
)

func barsFromCloses(closes []float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	base := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Symbol: "600519",
			Date:   base.AddDate(0, 0, i),
			Close:  decimal.NewFromFloat(c),
		}
	}
	return bars
}

func TestTechnicalRequiresHistory(t *testing.T) {
	st := models.State{Prices: barsFromCloses(make([]float64, 30))}
	if _, err := Technical(st); err == nil {
		t.Fatal("expected error for short history")
	}
}

func TestTechnicalOutputShape(t *testing.T) {
	// Three price shapes; the exact vote depends on the indicator mix,
	// but the output contract holds for all of them.
	shapes := map[string]func(i int) float64{
		"uptrend":   func(i int) float64 { return 100 + float64(i) },
		"downtrend": func(i int) float64 { return 200 - float64(i) },
		"oscillating": func(i int) float64 {
			if i%2 == 0 {
				return 100
			}
			return 102
		},
	}

	for name, f := range shapes {
		t.Run(name, func(t *testing.T) {
			closes := make([]float64, 90)
			for i := range closes {
				closes[i] = f(i)
			}

			sig, err := Technical(models.State{Prices: barsFromCloses(closes)})
			if err != nil {
				t.Fatalf("Technical: %v", err)
			}
			if sig.Direction != models.Bullish && sig.Direction != models.Bearish && sig.Direction != models.Neutral {
				t.Fatalf("invalid direction %q", sig.Direction)
			}
			if sig.Confidence < 0 || sig.Confidence > 1 {
				t.Fatalf("confidence out of range: %v", sig.Confidence)
			}
			for _, key := range []string{"trend_analysis", "momentum_indicators", "support_resistance"} {
				if _, ok := sig.Reasoning[key]; !ok {
					t.Errorf("missing reasoning key %s", key)
				}
			}
		})
	}
}

func TestTechnicalUptrendVotesBullishTrend(t *testing.T) {
	closes := make([]float64, 90)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	sig, err := Technical(models.State{Prices: barsFromCloses(closes)})
	if err != nil {
		t.Fatalf("Technical: %v", err)
	}
	if got := sig.Reasoning["trend_analysis"]; got[:len("bullish")] != "bullish" {
		t.Fatalf("trend vote: want bullish prefix, got %q", got)
	}
}

func TestTallyVotes(t *testing.T) {
	cases := []struct {
		votes      []models.Direction
		wantDir    models.Direction
		wantConf   float64
	}{
		{[]models.Direction{models.Bullish, models.Bullish, models.Neutral}, models.Bullish, 2.0 / 3},
		{[]models.Direction{models.Bearish, models.Bearish, models.Bearish}, models.Bearish, 1},
		{[]models.Direction{models.Bullish, models.Bearish, models.Neutral}, models.Neutral, 1.0 / 3},
		{[]models.Direction{models.Neutral, models.Neutral, models.Neutral}, models.Neutral, 0},
	}
	for _, tc := range cases {
		dir, conf := tallyVotes(tc.votes)
		if dir != tc.wantDir || conf != tc.wantConf {
			t.Errorf("tallyVotes(%v): want (%s, %v), got (%s, %v)",
				tc.votes, tc.wantDir, tc.wantConf, dir, conf)
		}
	}
}
