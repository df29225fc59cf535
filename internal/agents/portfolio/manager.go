// Package portfolio makes the final lot-quantized trading decision,
// combining the analyst signals with the risk ceiling and a weighted
// advisory opinion from the completion service.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/phuslu/log"

	"github.com/hweilin/quantmind/consts"
	"github.com/hweilin/quantmind/internal/llm"
	"github.com/hweilin/quantmind/models"
)

var (
	ErrMissingRisk    = errors.New("decision requires the risk assessment")
	ErrMissingSignals = errors.New("decision requires all four analyst signals")
	ErrNoLastPrice    = errors.New("decision requires a last traded price")
)

// Completer is the completion-service surface the manager needs.
type Completer interface {
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
}

// fallbackConfidence is attached to the conservative default decision
// when the completion service yields nothing usable.
const fallbackConfidence = 0.7

const systemPromptFormat = `You are a portfolio manager making final trading decisions.
Your job is to make a trading decision based on the team's analysis while strictly
adhering to risk management constraints.

RISK MANAGEMENT CONSTRAINTS:
- You MUST NOT exceed the max position value %.2f specified by the risk manager
- You MUST follow the trading action (%s) recommended by risk management
- These are hard constraints that cannot be overridden by other signals

When weighing the different signals for direction and timing:
1. Valuation Analysis (%.0f%% weight) - primary driver of fair value assessment
2. Fundamental Analysis (%.0f%% weight) - business quality and growth assessment
3. Technical Analysis (%.0f%% weight) - secondary confirmation and timing
4. Sentiment Analysis (%.0f%% weight) - final consideration within risk limits

Reply with a JSON object only, no markdown:
{
    "action": "buy" | "sell" | "hold",
    "quantity": <non-negative integer>,
    "confidence": <float between 0 and 1>,
    "agent_signals": [{"agent_name": "...", "signal": "bullish|bearish|neutral", "confidence": <float>}],
    "reasoning": "<concise explanation of how you weighted the signals>"
}`

type decisionPayload struct {
	Action       string               `json:"action"`
	Quantity     int64                `json:"quantity"`
	Confidence   float64              `json:"confidence"`
	AgentSignals []models.AgentSignal `json:"agent_signals"`
	Reasoning    string               `json:"reasoning"`
}

// Manager holds the completion service used for the advisory opinion.
type Manager struct {
	svc    Completer
	logger log.Logger
}

func NewManager(svc Completer, logger log.Logger) *Manager {
	return &Manager{svc: svc, logger: logger}
}

// Decide produces the final decision. The completion service supplies
// action, quantity and reasoning; the hard constraints (risk ceiling,
// cash, holdings, lot size) are always enforced locally afterwards.
func (m *Manager) Decide(ctx context.Context, st models.State) (models.Decision, error) {
	if st.Risk == nil {
		return models.Decision{}, ErrMissingRisk
	}
	for _, agent := range []string{consts.AgentTechnical, consts.AgentFundamentals, consts.AgentSentiment, consts.AgentValuation} {
		if _, ok := st.SignalFor(agent); !ok {
			return models.Decision{}, fmt.Errorf("%w: %s", ErrMissingSignals, agent)
		}
	}
	lastPrice := st.LastPrice()
	if lastPrice <= 0 {
		return models.Decision{}, ErrNoLastPrice
	}

	payload := m.advisoryDecision(ctx, st)

	decision := models.Decision{
		Action:       normalizeAction(payload.Action),
		Confidence:   payload.Confidence,
		AgentSignals: payload.AgentSignals,
		Reasoning:    payload.Reasoning,
	}
	if len(decision.AgentSignals) == 0 {
		decision.AgentSignals = signalBreakdown(st)
	}

	decision.Quantity = constrainQuantity(decision.Action, payload.Quantity, st, lastPrice)
	if decision.Quantity == 0 && decision.Action != models.ActionHold {
		// An order for zero shares is a hold in practice.
		decision.Action = models.ActionHold
	}

	m.logger.Info().
		Str("action", string(decision.Action)).
		Int64("quantity", decision.Quantity).
		Float64("confidence", decision.Confidence).
		Msg("decision made")

	return decision, nil
}

// advisoryDecision asks the completion service for the weighted
// qualitative decision. Any failure degrades to the fixed conservative
// default with the cause recorded.
func (m *Manager) advisoryDecision(ctx context.Context, st models.State) decisionPayload {
	risk := *st.Risk
	system := fmt.Sprintf(systemPromptFormat,
		risk.MaxPositionValue, risk.TradingAction,
		consts.WeightValuation*100, consts.WeightFundamentals*100,
		consts.WeightTechnical*100, consts.WeightSentiment*100)

	var sb strings.Builder
	sb.WriteString("Based on the team's analysis below, make your trading decision.\n\n")
	for _, agent := range []string{consts.AgentTechnical, consts.AgentFundamentals, consts.AgentSentiment, consts.AgentValuation} {
		sig, _ := st.SignalFor(agent)
		fmt.Fprintf(&sb, "%s: %s (confidence %.2f)\n", agent, sig.Direction, sig.Confidence)
		for key, detail := range sig.Reasoning {
			fmt.Fprintf(&sb, "  %s: %s\n", key, detail)
		}
	}
	fmt.Fprintf(&sb, "\nRisk assessment: %s\n", risk.Reasoning)
	fmt.Fprintf(&sb, "Recommended action: %s, max position value: %.2f\n", risk.TradingAction, risk.MaxPositionValue)
	fmt.Fprintf(&sb, "\nPortfolio: cash %.2f, current position %d shares, lot size %d\n",
		st.Portfolio.Cash, st.Portfolio.Shares, st.LotSize)

	reply, err := m.svc.Complete(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(sb.String()),
	})
	if err != nil {
		m.logger.Warn().Err(err).Msg("decision completion failed, using conservative fallback")
		return fallbackPayload(st, "completion service unreachable")
	}

	var payload decisionPayload
	if err := llm.DecodeReply(reply, &payload); err != nil {
		m.logger.Warn().Err(err).Msg("decision reply unparseable, using conservative fallback")
		return fallbackPayload(st, "completion reply unparseable")
	}

	if payload.Confidence < 0 {
		payload.Confidence = 0
	}
	if payload.Confidence > 1 {
		payload.Confidence = 1
	}
	return payload
}

func fallbackPayload(st models.State, cause string) decisionPayload {
	return decisionPayload{
		Action:       string(models.ActionHold),
		Quantity:     0,
		Confidence:   fallbackConfidence,
		AgentSignals: signalBreakdown(st),
		Reasoning:    fmt.Sprintf("Conservative default (%s): holding position.", cause),
	}
}

// signalBreakdown lists every pipeline contribution for the report.
func signalBreakdown(st models.State) []models.AgentSignal {
	breakdown := make([]models.AgentSignal, 0, 5)
	for _, agent := range []string{consts.AgentTechnical, consts.AgentFundamentals, consts.AgentSentiment, consts.AgentValuation} {
		if sig, ok := st.SignalFor(agent); ok {
			breakdown = append(breakdown, models.AgentSignal{
				Agent:      agent,
				Signal:     sig.Direction,
				Confidence: sig.Confidence,
			})
		}
	}
	if st.Risk != nil {
		breakdown = append(breakdown, models.AgentSignal{
			Agent:      consts.AgentRisk,
			Signal:     riskDirection(st.Risk.TradingAction),
			Confidence: 1,
		})
	}
	return breakdown
}

func riskDirection(action models.Action) models.Direction {
	switch action {
	case models.ActionBuy:
		return models.Bullish
	case models.ActionSell, models.ActionReduce:
		return models.Bearish
	default:
		return models.Neutral
	}
}

func normalizeAction(raw string) models.Action {
	switch models.Action(strings.ToLower(strings.TrimSpace(raw))) {
	case models.ActionBuy:
		return models.ActionBuy
	case models.ActionSell:
		return models.ActionSell
	default:
		return models.ActionHold
	}
}

// constrainQuantity enforces the hard limits: the risk ceiling and cash
// for buys, current holdings for sells, and lot-size quantization for
// both. A positive buy request that quantizes to zero is promoted to one
// lot before the caps apply.
func constrainQuantity(action models.Action, requested int64, st models.State, lastPrice float64) int64 {
	if requested < 0 {
		requested = 0
	}
	lot := st.LotSize
	if lot < 1 {
		lot = 1
	}

	switch action {
	case models.ActionBuy:
		maxShares := quantizeLots(int64(st.Risk.MaxPositionValue/lastPrice), lot)
		cashShares := quantizeLots(int64(st.Portfolio.Cash/lastPrice), lot)
		if cashShares < maxShares {
			maxShares = cashShares
		}

		quantity := quantizeLots(requested, lot)
		if requested > 0 && quantity == 0 {
			quantity = lot
		}
		if quantity > maxShares {
			quantity = maxShares
		}
		return quantity

	case models.ActionSell:
		quantity := requested
		if quantity > st.Portfolio.Shares {
			quantity = st.Portfolio.Shares
		}
		return quantizeLots(quantity, lot)

	default:
		return 0
	}
}

func quantizeLots(shares, lot int64) int64 {
	if shares < 0 {
		return 0
	}
	return shares / lot * lot
}
