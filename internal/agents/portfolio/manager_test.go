package portfolio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/shopspring/decimal"

	"github.com/hweilin/quantmind/config"
	"github.com/hweilin/quantmind/consts"
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

// decisionState builds a state ready for the final stage: all four
// analyst signals, a risk assessment, and a single price bar.
func decisionState(cash float64, shares int64, lot int64, maxPos, price float64) models.State {
	st := models.NewState("600519", time.Time{}, time.Time{}, models.Portfolio{Cash: cash, Shares: shares}, lot)
	st.Prices = []models.PriceBar{{
		Symbol: "600519",
		Date:   time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
		Close:  decimal.NewFromFloat(price),
	}}
	for _, agent := range []string{consts.AgentTechnical, consts.AgentFundamentals, consts.AgentSentiment, consts.AgentValuation} {
		st = st.WithSignal(models.Signal{
			Agent:      agent,
			Direction:  models.Bullish,
			Confidence: 0.7,
			Reasoning:  map[string]string{"summary": "constructive"},
		})
	}
	st.Risk = &models.RiskAssessment{
		RiskScore:        2,
		MaxPositionValue: maxPos,
		TradingAction:    models.ActionBuy,
		Reasoning:        "low risk environment",
	}
	return st
}

func buyReply(quantity int64) string {
	return fmt.Sprintf(`{"action": "buy", "quantity": %d, "confidence": 0.85, "agent_signals": [], "reasoning": "valuation and fundamentals aligned"}`, quantity)
}

func TestBuyQuantizedToLotAndCeiling(t *testing.T) {
	// Ceiling 5000 at price 10 allows 500 shares; a 460-share request
	// rounds down to 400 (4 lots of 100).
	m := NewManager(stubClient(llmtest.Static(buyReply(460))), quietLogger())

	d, err := m.Decide(context.Background(), decisionState(100000, 0, 100, 5000, 10))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Action != models.ActionBuy {
		t.Fatalf("action: want buy, got %s", d.Action)
	}
	if d.Quantity != 400 {
		t.Fatalf("quantity: want 400, got %d", d.Quantity)
	}
	if d.Quantity%100 != 0 {
		t.Fatalf("quantity %d is not a lot multiple", d.Quantity)
	}
}

func TestBuyCappedByCashNotCeiling(t *testing.T) {
	// Cash 1500 at price 10 affords 150 shares, one full lot. The
	// ceiling alone would allow 500.
	m := NewManager(stubClient(llmtest.Static(buyReply(1000))), quietLogger())

	d, err := m.Decide(context.Background(), decisionState(1500, 0, 100, 5000, 10))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Quantity != 100 {
		t.Fatalf("quantity: want cash-capped 100, got %d", d.Quantity)
	}
}

func TestSmallBuyPromotedToOneLot(t *testing.T) {
	m := NewManager(stubClient(llmtest.Static(buyReply(50))), quietLogger())

	d, err := m.Decide(context.Background(), decisionState(100000, 0, 100, 5000, 10))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Quantity != 100 {
		t.Fatalf("quantity: want promoted single lot 100, got %d", d.Quantity)
	}
}

func TestBuyWithNoCashBecomesHold(t *testing.T) {
	m := NewManager(stubClient(llmtest.Static(buyReply(300))), quietLogger())

	d, err := m.Decide(context.Background(), decisionState(0, 200, 100, 5000, 10))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Quantity != 0 {
		t.Fatalf("quantity: want 0 with no cash, got %d", d.Quantity)
	}
	if d.Action != models.ActionHold {
		t.Fatalf("action: want hold for zero quantity, got %s", d.Action)
	}
}

func TestSellClippedToHoldingsAndQuantized(t *testing.T) {
	m := NewManager(stubClient(llmtest.Static(`{"action": "sell", "quantity": 1000, "confidence": 0.6, "agent_signals": [], "reasoning": "de-risking"}`)), quietLogger())

	d, err := m.Decide(context.Background(), decisionState(10000, 250, 100, 5000, 10))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Action != models.ActionSell {
		t.Fatalf("action: want sell, got %s", d.Action)
	}
	if d.Quantity != 200 {
		t.Fatalf("quantity: want 200 (250 clipped, quantized down), got %d", d.Quantity)
	}
}

func TestServiceFailureFallsBackToHold(t *testing.T) {
	m := NewManager(stubClient(llmtest.Failing(errors.New("unreachable"))), quietLogger())

	d, err := m.Decide(context.Background(), decisionState(100000, 500, 100, 5000, 10))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Action != models.ActionHold {
		t.Fatalf("action: want hold fallback, got %s", d.Action)
	}
	if d.Quantity != 0 {
		t.Fatalf("quantity: want 0 fallback, got %d", d.Quantity)
	}
	if d.Confidence != 0.7 {
		t.Fatalf("confidence: want 0.7 fallback, got %v", d.Confidence)
	}
	if len(d.AgentSignals) != 5 {
		t.Fatalf("agent signals: want 5 rows (4 analysts + risk), got %d", len(d.AgentSignals))
	}
	last := d.AgentSignals[len(d.AgentSignals)-1]
	if last.Agent != consts.AgentRisk {
		t.Fatalf("last breakdown row: want %s, got %s", consts.AgentRisk, last.Agent)
	}
}

func TestUnparseableReplyFallsBackToHold(t *testing.T) {
	m := NewManager(stubClient(llmtest.Static("buy everything immediately")), quietLogger())

	d, err := m.Decide(context.Background(), decisionState(100000, 0, 100, 5000, 10))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Action != models.ActionHold || d.Quantity != 0 || d.Confidence != 0.7 {
		t.Fatalf("want conservative fallback {hold 0 0.7}, got {%s %d %v}", d.Action, d.Quantity, d.Confidence)
	}
}

func TestDecidePreconditions(t *testing.T) {
	m := NewManager(stubClient(llmtest.Static(buyReply(100))), quietLogger())

	st := decisionState(100000, 0, 100, 5000, 10)
	st.Risk = nil
	if _, err := m.Decide(context.Background(), st); !errors.Is(err, ErrMissingRisk) {
		t.Fatalf("want ErrMissingRisk, got %v", err)
	}

	st = decisionState(100000, 0, 100, 5000, 10)
	delete(st.Signals, consts.AgentValuation)
	if _, err := m.Decide(context.Background(), st); !errors.Is(err, ErrMissingSignals) {
		t.Fatalf("want ErrMissingSignals, got %v", err)
	}

	st = decisionState(100000, 0, 100, 5000, 10)
	st.Prices = nil
	if _, err := m.Decide(context.Background(), st); !errors.Is(err, ErrNoLastPrice) {
		t.Fatalf("want ErrNoLastPrice, got %v", err)
	}
}
