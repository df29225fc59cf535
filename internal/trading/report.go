package trading

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hweilin/quantmind/consts"
	"github.com/hweilin/quantmind/models"
)

// reportOrder fixes the analyst section order in the rendered report.
var reportOrder = []struct {
	agent string
	title string
}{
	{consts.AgentTechnical, "Technical Analysis"},
	{consts.AgentFundamentals, "Fundamental Analysis"},
	{consts.AgentSentiment, "Sentiment Analysis"},
	{consts.AgentValuation, "Valuation Analysis"},
}

// RenderReport formats the final state as a markdown analysis report.
func RenderReport(st models.State) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Analysis Report: %s\n\n", st.Ticker)
	if !st.StartDate.IsZero() || !st.EndDate.IsZero() {
		fmt.Fprintf(&sb, "Period: %s to %s\n\n",
			st.StartDate.Format("2006-01-02"), st.EndDate.Format("2006-01-02"))
	}

	if d := st.Decision; d != nil {
		sb.WriteString("## Decision\n\n")
		fmt.Fprintf(&sb, "| Action | Quantity | Confidence |\n|---|---|---|\n| %s | %d | %.0f%% |\n\n",
			strings.ToUpper(string(d.Action)), d.Quantity, d.Confidence*100)
		if d.Reasoning != "" {
			fmt.Fprintf(&sb, "%s\n\n", d.Reasoning)
		}
		if len(d.AgentSignals) > 0 {
			sb.WriteString("| Agent | Signal | Confidence |\n|---|---|---|\n")
			for _, row := range d.AgentSignals {
				fmt.Fprintf(&sb, "| %s | %s | %.0f%% |\n", row.Agent, row.Signal, row.Confidence*100)
			}
			sb.WriteString("\n")
		}
	}

	for _, section := range reportOrder {
		sig, ok := st.SignalFor(section.agent)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n", section.title)
		fmt.Fprintf(&sb, "Signal: **%s** (confidence %.0f%%)\n\n", sig.Direction, sig.Confidence*100)
		for _, key := range sortedKeys(sig.Reasoning) {
			fmt.Fprintf(&sb, "- %s: %s\n", key, sig.Reasoning[key])
		}
		sb.WriteString("\n")
	}

	writeThesis(&sb, "Bull Case", st.BullThesis)
	writeThesis(&sb, "Bear Case", st.BearThesis)

	if debate := st.Debate; debate != nil {
		sb.WriteString("## Debate\n\n")
		fmt.Fprintf(&sb, "Signal: **%s** (confidence %.0f%%): %s\n\n",
			debate.Signal, debate.Confidence*100, debate.Reasoning)
		fmt.Fprintf(&sb, "Bull %.0f%% vs Bear %.0f%%, external score %.2f, mixed difference %.3f\n\n",
			debate.BullConfidence*100, debate.BearConfidence*100,
			debate.LLMScore, debate.MixedConfidenceDiff)
		if debate.LLMAnalysis != "" {
			fmt.Fprintf(&sb, "%s\n\n", debate.LLMAnalysis)
		}
	}

	if risk := st.Risk; risk != nil {
		sb.WriteString("## Risk Assessment\n\n")
		fmt.Fprintf(&sb, "%s\n\n", risk.Reasoning)
		fmt.Fprintf(&sb, "- Risk score: %d/10\n", risk.RiskScore)
		fmt.Fprintf(&sb, "- Max position value: %.2f\n", risk.MaxPositionValue)
		fmt.Fprintf(&sb, "- Recommended action: %s\n", risk.TradingAction)
		fmt.Fprintf(&sb, "- Annualized volatility: %.2f%%\n", risk.Metrics.Volatility*100)
		fmt.Fprintf(&sb, "- 95%% VaR (daily): %.2f%%\n", risk.Metrics.ValueAtRisk95*100)
		fmt.Fprintf(&sb, "- Max drawdown (60d): %.2f%%\n\n", risk.Metrics.MaxDrawdown*100)

		if len(risk.StressResults) > 0 {
			sb.WriteString("| Scenario | Potential Loss | Portfolio Impact |\n|---|---|---|\n")
			for _, scenario := range sortedStress(risk.StressResults) {
				result := risk.StressResults[scenario]
				fmt.Fprintf(&sb, "| %s | %.2f | %.2f%% |\n",
					scenario, result.PotentialLoss, result.PortfolioImpact*100)
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func writeThesis(sb *strings.Builder, title string, thesis *models.Thesis) {
	if thesis == nil {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", title)
	fmt.Fprintf(sb, "Confidence: %.0f%%\n\n", thesis.Confidence*100)
	for _, p := range thesis.Points {
		fmt.Fprintf(sb, "- %s\n", p)
	}
	sb.WriteString("\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStress(m map[string]models.StressResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
