package consts

// Pipeline stage names, in execution order.
const (
	TechnicalAnalyst    = "technical_analyst"
	FundamentalsAnalyst = "fundamentals_analyst"
	SentimentAnalyst    = "sentiment_analyst"
	ValuationAnalyst    = "valuation_analyst"
	BullResearcher      = "bull_researcher"
	BearResearcher      = "bear_researcher"
	DebateRoom          = "debate_room"
	RiskManager         = "risk_manager"
	PortfolioManager    = "portfolio_manager"
)

// Agent names used in decision breakdowns and prompts.
const (
	AgentTechnical    = "technical_analysis"
	AgentFundamentals = "fundamental_analysis"
	AgentSentiment    = "sentiment_analysis"
	AgentValuation    = "valuation_analysis"
	AgentRisk         = "risk_management"
)

// Fusion constants. These are deliberate product decisions; change them
// only with product sign-off.
const (
	// DebateLLMWeight is the share of the third-party opinion in the
	// mixed confidence difference; the rest goes to the raw bull/bear gap.
	DebateLLMWeight = 0.3

	// DebateNeutralBand: a mixed difference inside (-band, +band) is a draw.
	DebateNeutralBand = 0.1

	// FallbackPointConfidence is assigned to a hedging thesis point built
	// from a signal that disagrees with the researcher's stance.
	FallbackPointConfidence = 0.3

	// BasePositionRatio is the unscaled position ceiling as a fraction of
	// total portfolio value.
	BasePositionRatio = 0.25

	// DefaultLotSize is used when the exchange lot size cannot be resolved
	// (A-share and most HK boards trade in lots of 100).
	DefaultLotSize = 100
)

// Advisory signal weights quoted to the completion service by the
// portfolio manager. They guide the model's reasoning and are not
// recomputed locally.
const (
	WeightValuation    = 0.35
	WeightFundamentals = 0.30
	WeightTechnical    = 0.25
	WeightSentiment    = 0.10
)
