// Package debate reconciles the bull and bear theses plus one external
// third-party opinion into a single directional signal.
package debate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/phuslu/log"

	"github.com/hweilin/quantmind/consts"
	"github.com/hweilin/quantmind/internal/llm"
	"github.com/hweilin/quantmind/models"
)

var ErrMissingThesis = errors.New("debate requires both theses")

// Completer is the completion-service surface the debate room needs.
type Completer interface {
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
}

const systemPrompt = "You are a professional financial analyst. " +
	"Please provide your analysis in English only."

const replyFormat = `Reply with a JSON object in exactly this shape:
{
    "analysis": "your assessment of each side's strongest and weakest arguments",
    "score": 0.0,
    "reasoning": "a brief justification of the score"
}
The score ranges from -1.0 (extremely bearish) to 1.0 (extremely bullish), 0 meaning neutral.
Make sure the reply is valid JSON containing all three fields.`

type opinionPayload struct {
	Analysis  string  `json:"analysis"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// Room grades the two theses through the completion service and mixes
// the external score into the confidence difference.
type Room struct {
	svc    Completer
	logger log.Logger
}

func NewRoom(svc Completer, logger log.Logger) *Room {
	return &Room{svc: svc, logger: logger}
}

// Run produces the debate result. The external call is best-effort: any
// failure is recorded and the score defaults to 0 (neutral), never
// aborting the run.
func (r *Room) Run(ctx context.Context, st models.State) (models.DebateResult, error) {
	if st.BullThesis == nil || st.BearThesis == nil {
		return models.DebateResult{}, ErrMissingThesis
	}
	bull, bear := *st.BullThesis, *st.BearThesis

	summary := make([]string, 0, len(bull.Points)+len(bear.Points)+2)
	summary = append(summary, "Bullish Arguments:")
	for _, p := range bull.Points {
		summary = append(summary, "+ "+p)
	}
	summary = append(summary, "Bearish Arguments:")
	for _, p := range bear.Points {
		summary = append(summary, "- "+p)
	}

	opinion := r.thirdOpinion(ctx, bull, bear)

	confidenceDiff := bull.Confidence - bear.Confidence
	mixed := (1-consts.DebateLLMWeight)*confidenceDiff + consts.DebateLLMWeight*opinion.Score

	result := models.DebateResult{
		BullConfidence:      bull.Confidence,
		BearConfidence:      bear.Confidence,
		ConfidenceDiff:      confidenceDiff,
		LLMScore:            opinion.Score,
		MixedConfidenceDiff: mixed,
		LLMAnalysis:         opinion.Analysis,
		LLMReasoning:        opinion.Reasoning,
		DebateSummary:       summary,
	}

	switch {
	case math.Abs(mixed) < consts.DebateNeutralBand:
		result.Signal = models.Neutral
		result.Confidence = math.Max(bull.Confidence, bear.Confidence)
		result.Reasoning = "Balanced debate with strong arguments on both sides"
	case mixed > 0:
		result.Signal = models.Bullish
		result.Confidence = bull.Confidence
		result.Reasoning = "Bullish arguments more convincing"
	default:
		result.Signal = models.Bearish
		result.Confidence = bear.Confidence
		result.Reasoning = "Bearish arguments more convincing"
	}

	r.logger.Info().
		Str("signal", string(result.Signal)).
		Float64("confidence", result.Confidence).
		Float64("confidence_diff", confidenceDiff).
		Float64("llm_score", opinion.Score).
		Float64("mixed_diff", mixed).
		Msg("debate resolved")

	return result, nil
}

// thirdOpinion asks the completion service to grade both perspectives.
// On any failure it returns a neutral opinion with the cause recorded.
func (r *Room) thirdOpinion(ctx context.Context, bull, bear models.Thesis) opinionPayload {
	var sb strings.Builder
	sb.WriteString("Evaluate the following investment research perspectives and provide a third-party analysis.\n")
	writePerspective(&sb, "BULLISH", bull)
	writePerspective(&sb, "BEARISH", bear)
	sb.WriteString("\n")
	sb.WriteString(replyFormat)

	reply, err := r.svc.Complete(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(sb.String()),
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("third-opinion call failed, defaulting to neutral")
		return opinionPayload{Analysis: "completion service call failed", Reasoning: "service error"}
	}

	var payload opinionPayload
	if err := llm.DecodeReply(reply, &payload); err != nil {
		r.logger.Warn().Err(err).Msg("third-opinion reply unparseable, defaulting to neutral")
		return opinionPayload{Analysis: "failed to parse completion reply", Reasoning: "parse error"}
	}

	payload.Score = math.Max(math.Min(payload.Score, 1), -1)
	return payload
}

func writePerspective(sb *strings.Builder, label string, thesis models.Thesis) {
	fmt.Fprintf(sb, "\n%s perspective (confidence %.2f):\n", label, thesis.Confidence)
	for _, p := range thesis.Points {
		fmt.Fprintf(sb, "- %s\n", p)
	}
}
