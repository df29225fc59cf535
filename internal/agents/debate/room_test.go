package debate

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/phuslu/log"

	"github.com/hweilin/quantmind/config"
	"github.com/hweilin/quantmind/internal/llm"
	"github.com/hweilin/quantmind/internal/llm/llmtest"
	"github.com/hweilin/quantmind/models"
)

func quietLogger() log.Logger {
	return log.Logger{Level: log.ErrorLevel, Writer: log.IOWriter{Writer: io.Discard}}
}

func stubClient(stub *llmtest.Stub) *llm.Client {
	return llm.NewWithModel(stub, config.LLMConfig{
		BaseDelay:      time.Millisecond,
		MaxDelay:       time.Millisecond,
		RequestTimeout: time.Second,
	})
}

func debateState(bullConf, bearConf float64) models.State {
	return models.State{
		Ticker: "600519",
		BullThesis: &models.Thesis{
			Stance:     models.Bullish,
			Confidence: bullConf,
			Points:     []string{"strong momentum", "undervalued"},
		},
		BearThesis: &models.Thesis{
			Stance:     models.Bearish,
			Confidence: bearConf,
			Points:     []string{"sentiment stretched", "growth slowing"},
		},
	}
}

func TestDebateBullishWin(t *testing.T) {
	room := NewRoom(stubClient(llmtest.Static(`{"analysis": "bull case stronger", "score": 0, "reasoning": "momentum"}`)), quietLogger())

	result, err := room.Run(context.Background(), debateState(0.8, 0.2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if math.Abs(result.ConfidenceDiff-0.6) > 1e-9 {
		t.Fatalf("confidenceDiff: want 0.6, got %v", result.ConfidenceDiff)
	}
	if math.Abs(result.MixedConfidenceDiff-0.42) > 1e-9 {
		t.Fatalf("mixedDiff: want 0.42, got %v", result.MixedConfidenceDiff)
	}
	if result.Signal != models.Bullish {
		t.Fatalf("signal: want bullish, got %s", result.Signal)
	}
	if result.Confidence != 0.8 {
		t.Fatalf("confidence: want 0.8, got %v", result.Confidence)
	}
}

func TestDebateEqualConfidenceIsNeutral(t *testing.T) {
	room := NewRoom(stubClient(llmtest.Static(`{"analysis": "even", "score": 0, "reasoning": "balanced"}`)), quietLogger())

	result, err := room.Run(context.Background(), debateState(0.6, 0.6))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Signal != models.Neutral {
		t.Fatalf("signal: want neutral, got %s", result.Signal)
	}
	if result.Confidence != 0.6 {
		t.Fatalf("confidence: want max(bull,bear)=0.6, got %v", result.Confidence)
	}
}

func TestDebateExternalScoreFlipsOutcome(t *testing.T) {
	// Slight bull edge (diff 0.08·0.7=0.056) overwhelmed by a strongly
	// bearish external score (−0.9·0.3=−0.27).
	room := NewRoom(stubClient(llmtest.Static(`{"analysis": "bear case decisive", "score": -0.9, "reasoning": "risk"}`)), quietLogger())

	result, err := room.Run(context.Background(), debateState(0.54, 0.46))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Signal != models.Bearish {
		t.Fatalf("signal: want bearish, got %s", result.Signal)
	}
	if result.Confidence != 0.46 {
		t.Fatalf("confidence: want bear 0.46, got %v", result.Confidence)
	}
}

func TestDebateServiceFailureDefaultsNeutralScore(t *testing.T) {
	room := NewRoom(stubClient(llmtest.Failing(errors.New("unreachable"))), quietLogger())

	result, err := room.Run(context.Background(), debateState(0.8, 0.2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.LLMScore != 0 {
		t.Fatalf("llmScore: want 0 on failure, got %v", result.LLMScore)
	}
	if result.Signal != models.Bullish {
		t.Fatalf("signal: want bullish from raw diff, got %s", result.Signal)
	}
}

func TestDebateClampsExternalScore(t *testing.T) {
	room := NewRoom(stubClient(llmtest.Static(`{"analysis": "x", "score": 5, "reasoning": "y"}`)), quietLogger())

	result, err := room.Run(context.Background(), debateState(0.5, 0.5))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.LLMScore != 1 {
		t.Fatalf("llmScore: want clamp to 1, got %v", result.LLMScore)
	}
}

func TestDebateRequiresBothTheses(t *testing.T) {
	room := NewRoom(stubClient(llmtest.Static(`{}`)), quietLogger())

	st := debateState(0.5, 0.5)
	st.BearThesis = nil
	if _, err := room.Run(context.Background(), st); !errors.Is(err, ErrMissingThesis) {
		t.Fatalf("want ErrMissingThesis, got %v", err)
	}
}
