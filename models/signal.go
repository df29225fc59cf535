package models

// Direction is the normalized stance of an analytical signal.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Action is a trading action recommended by the risk or portfolio stage.
type Action string

const (
	ActionBuy    Action = "buy"
	ActionSell   Action = "sell"
	ActionHold   Action = "hold"
	ActionReduce Action = "reduce"
)

// Signal is the normalized output of one signal producer. Signals are
// created once per run and never mutated afterwards.
type Signal struct {
	Agent      string            `json:"agent"`
	Direction  Direction         `json:"signal"`
	Confidence float64           `json:"confidence"`
	Reasoning  map[string]string `json:"reasoning,omitempty"`
}

// Thesis is a one-sided argument built by a bull or bear researcher from
// all four signals. Confidence is the unweighted mean of exactly four
// per-signal scores.
type Thesis struct {
	Stance     Direction `json:"perspective"`
	Confidence float64   `json:"confidence"`
	Points     []string  `json:"thesis_points"`
	Reasoning  string    `json:"reasoning"`
}

// DebateResult reconciles the bull and bear theses plus one external
// third-party opinion into a single directional signal.
type DebateResult struct {
	Signal              Direction `json:"signal"`
	Confidence          float64   `json:"confidence"`
	BullConfidence      float64   `json:"bull_confidence"`
	BearConfidence      float64   `json:"bear_confidence"`
	ConfidenceDiff      float64   `json:"confidence_diff"`
	LLMScore            float64   `json:"llm_score"`
	MixedConfidenceDiff float64   `json:"mixed_confidence_diff"`
	LLMAnalysis         string    `json:"llm_analysis,omitempty"`
	LLMReasoning        string    `json:"llm_reasoning,omitempty"`
	DebateSummary       []string  `json:"debate_summary"`
	Reasoning           string    `json:"reasoning"`
}
