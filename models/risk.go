package models

// RiskMetrics are the historical price statistics behind a risk score.
type RiskMetrics struct {
	Volatility           float64 `json:"volatility"`
	VolatilityPercentile float64 `json:"volatility_percentile"`
	ValueAtRisk95        float64 `json:"value_at_risk_95"`
	MaxDrawdown          float64 `json:"max_drawdown"`
}

// StressResult is the projected effect of one decline scenario on the
// current position.
type StressResult struct {
	PotentialLoss   float64 `json:"potential_loss"`
	PortfolioImpact float64 `json:"portfolio_impact"`
}

// RiskAssessment is the output of the risk stage: a bounded score, a hard
// position-value ceiling and a constrained trading action.
type RiskAssessment struct {
	// RiskScore is the final debate-adjusted score, capped at 10.
	RiskScore int `json:"risk_score"`
	// MarketRiskScore is the pre-debate-adjustment accumulation; the
	// position ceiling thresholds are evaluated against this value.
	MarketRiskScore  int                     `json:"market_risk_score"`
	MaxPositionValue float64                 `json:"max_position_size"`
	TradingAction    Action                  `json:"trading_action"`
	Metrics          RiskMetrics             `json:"risk_metrics"`
	StressResults    map[string]StressResult `json:"stress_test_results"`
	Reasoning        string                  `json:"reasoning"`
}
