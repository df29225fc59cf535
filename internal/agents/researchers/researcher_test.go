package researchers

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/hweilin/quantmind/consts"
	"github.com/hweilin/quantmind/models"
)

func stateWithSignals(dirs map[string]models.Direction, confs map[string]float64) models.State {
	st := models.NewState("600519", time.Time{}, time.Time{}, models.Portfolio{}, 100)
	for _, agent := range []string{consts.AgentTechnical, consts.AgentFundamentals, consts.AgentSentiment, consts.AgentValuation} {
		st = st.WithSignal(models.Signal{
			Agent:      agent,
			Direction:  dirs[agent],
			Confidence: confs[agent],
		})
	}
	return st
}

func allSignals(dir models.Direction, conf float64) (map[string]models.Direction, map[string]float64) {
	dirs := map[string]models.Direction{}
	confs := map[string]float64{}
	for _, agent := range []string{consts.AgentTechnical, consts.AgentFundamentals, consts.AgentSentiment, consts.AgentValuation} {
		dirs[agent] = dir
		confs[agent] = conf
	}
	return dirs, confs
}

func TestBullThesisAllAgreeing(t *testing.T) {
	dirs, confs := allSignals(models.Bullish, 0.8)
	thesis, err := Bull(stateWithSignals(dirs, confs))
	if err != nil {
		t.Fatalf("Bull: %v", err)
	}
	if thesis.Stance != models.Bullish {
		t.Fatalf("stance: got %s", thesis.Stance)
	}
	if len(thesis.Points) != 4 {
		t.Fatalf("points: want 4, got %d", len(thesis.Points))
	}
	if math.Abs(thesis.Confidence-0.8) > 1e-9 {
		t.Fatalf("confidence: want 0.8, got %v", thesis.Confidence)
	}
}

func TestBearThesisTotalDisagreementUsesFallback(t *testing.T) {
	// Every signal bullish: the bear researcher still produces four
	// hedging points, each at the 0.3 fallback.
	dirs, confs := allSignals(models.Bullish, 0.9)
	thesis, err := Bear(stateWithSignals(dirs, confs))
	if err != nil {
		t.Fatalf("Bear: %v", err)
	}
	if len(thesis.Points) != 4 {
		t.Fatalf("points: want 4, got %d", len(thesis.Points))
	}
	if math.Abs(thesis.Confidence-consts.FallbackPointConfidence) > 1e-9 {
		t.Fatalf("confidence: want %v, got %v", consts.FallbackPointConfidence, thesis.Confidence)
	}
}

func TestThesisMixedSignals(t *testing.T) {
	dirs := map[string]models.Direction{
		consts.AgentTechnical:    models.Bullish,
		consts.AgentFundamentals: models.Bullish,
		consts.AgentSentiment:    models.Bearish,
		consts.AgentValuation:    models.Neutral,
	}
	confs := map[string]float64{
		consts.AgentTechnical:    0.6,
		consts.AgentFundamentals: 1.0,
		consts.AgentSentiment:    0.7,
		consts.AgentValuation:    0.5,
	}

	bull, err := Bull(stateWithSignals(dirs, confs))
	if err != nil {
		t.Fatalf("Bull: %v", err)
	}
	// technical 0.6 + fundamentals 1.0 + two fallbacks 0.3
	if want := (0.6 + 1.0 + 0.3 + 0.3) / 4; math.Abs(bull.Confidence-want) > 1e-9 {
		t.Fatalf("bull confidence: want %v, got %v", want, bull.Confidence)
	}

	bear, err := Bear(stateWithSignals(dirs, confs))
	if err != nil {
		t.Fatalf("Bear: %v", err)
	}
	// sentiment 0.7 + three fallbacks 0.3
	if want := (0.7 + 0.3 + 0.3 + 0.3) / 4; math.Abs(bear.Confidence-want) > 1e-9 {
		t.Fatalf("bear confidence: want %v, got %v", want, bear.Confidence)
	}
}

func TestThesisMissingSignalFails(t *testing.T) {
	st := models.NewState("600519", time.Time{}, time.Time{}, models.Portfolio{}, 100)
	st = st.WithSignal(models.Signal{Agent: consts.AgentTechnical, Direction: models.Bullish, Confidence: 0.5})

	_, err := Bull(st)
	if !errors.Is(err, ErrMissingSignal) {
		t.Fatalf("want ErrMissingSignal, got %v", err)
	}
}

func TestThesisRejectsNeutralStance(t *testing.T) {
	dirs, confs := allSignals(models.Bullish, 0.5)
	if _, err := BuildThesis(stateWithSignals(dirs, confs), models.Neutral); err == nil {
		t.Fatal("expected error for neutral stance")
	}
}
