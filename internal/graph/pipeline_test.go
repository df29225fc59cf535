package graph

import (
	"context"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/shopspring/decimal"

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

// runState is a complete, deterministic run context: 130 flat daily bars
// at 100, solid financials, no news (the sentiment stage then skips the
// completion service).
func runState() models.State {
	st := models.NewState("600519",
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
		models.Portfolio{Cash: 100000, Shares: 0},
		100)

	base := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	st.Prices = make([]models.PriceBar, 130)
	for i := range st.Prices {
		st.Prices[i] = models.PriceBar{
			Symbol: "600519",
			Date:   base.AddDate(0, 0, i),
			Close:  decimal.NewFromInt(100),
		}
	}

	st.Financials = &models.Financials{
		MarketCap: 5_000_000_000,
		Metrics: models.FinancialMetrics{
			PERatio:              18,
			PriceToBook:          2.5,
			PriceToSales:         4,
			ReturnOnEquity:       0.22,
			NetMargin:            0.30,
			OperatingMargin:      0.25,
			RevenueGrowth:        0.15,
			EarningsGrowth:       0.12,
			BookValueGrowth:      0.11,
			CurrentRatio:         2.0,
			DebtToEquity:         0.3,
			FreeCashFlowPerShare: 5,
			EarningsPerShare:     5.5,
		},
		Current: models.FinancialLineItems{
			NetIncome:                   400_000_000,
			DepreciationAndAmortization: 50_000_000,
			CapitalExpenditure:          80_000_000,
			WorkingCapital:              200_000_000,
			FreeCashFlow:                350_000_000,
		},
		Previous: models.FinancialLineItems{WorkingCapital: 180_000_000},
	}
	return st
}

const (
	debateReply   = `{"analysis": "bull case better supported", "score": 0.4, "reasoning": "fundamentals"}`
	decisionReply = `{"action": "buy", "quantity": 460, "confidence": 0.85, "agent_signals": [], "reasoning": "aligned signals"}`
)

func TestPipelineRunsAllStages(t *testing.T) {
	stub := llmtest.Script(debateReply, decisionReply)
	p := New(stubClient(stub), Options{MaxNews: 5}, quietLogger())

	final, err := p.Run(context.Background(), runState())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(final.Signals) != 4 {
		t.Fatalf("signals: want 4, got %d", len(final.Signals))
	}
	if final.BullThesis == nil || final.BearThesis == nil {
		t.Fatal("missing thesis after run")
	}
	if final.Debate == nil || final.Risk == nil || final.Decision == nil {
		t.Fatal("missing debate, risk or decision after run")
	}

	// No recent news, so only the debate and the decision hit the service.
	if stub.CallCount() != 2 {
		t.Fatalf("service calls: want 2, got %d", stub.CallCount())
	}

	// Ceiling 25% of 100000 at price 100 caps the 460-share request at
	// two full lots.
	d := final.Decision
	if d.Action != models.ActionBuy {
		t.Fatalf("action: want buy, got %s", d.Action)
	}
	if d.Quantity != 200 {
		t.Fatalf("quantity: want 200, got %d", d.Quantity)
	}
	if d.Quantity%final.LotSize != 0 {
		t.Fatalf("quantity %d is not a multiple of lot %d", d.Quantity, final.LotSize)
	}
}

func TestPipelineIsIdempotent(t *testing.T) {
	run := func() models.Decision {
		p := New(stubClient(llmtest.Script(debateReply, decisionReply)), Options{MaxNews: 5}, quietLogger())
		final, err := p.Run(context.Background(), runState())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return *final.Decision
	}

	first, second := run(), run()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("decisions differ across identical runs:\n%+v\n%+v", first, second)
	}
}

func TestPipelineDoesNotMutateInput(t *testing.T) {
	p := New(stubClient(llmtest.Script(debateReply, decisionReply)), Options{MaxNews: 5}, quietLogger())

	input := runState()
	if _, err := p.Run(context.Background(), input); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(input.Signals) != 0 {
		t.Fatalf("input signals mutated: %d entries", len(input.Signals))
	}
	if input.BullThesis != nil || input.Debate != nil || input.Risk != nil || input.Decision != nil {
		t.Fatal("input stage results mutated")
	}
}

func TestPipelineStageFailureNamesStage(t *testing.T) {
	p := New(stubClient(llmtest.Script(debateReply, decisionReply)), Options{MaxNews: 5}, quietLogger())

	st := runState()
	st.Financials = nil
	_, err := p.Run(context.Background(), st)
	if err == nil {
		t.Fatal("expected error without financials")
	}
	if !strings.Contains(err.Error(), "fundamentals_analyst") {
		t.Fatalf("error should name the failing stage, got: %v", err)
	}
}

func TestPipelineHonorsContextCancellation(t *testing.T) {
	p := New(stubClient(llmtest.Script(debateReply, decisionReply)), Options{MaxNews: 5}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Run(ctx, runState()); err == nil {
		t.Fatal("expected context error")
	}
}
