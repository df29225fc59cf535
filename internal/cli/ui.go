package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hweilin/quantmind/consts"
	"github.com/hweilin/quantmind/internal/trading"
	"github.com/hweilin/quantmind/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	decisionStyle = lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2)

	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	bullishStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	bearishStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	neutralStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
)

// PrintRunHeader announces the run before the pipeline starts.
func PrintRunHeader(ticker string) {
	fmt.Println(titleStyle.Render("Analyzing " + ticker))
}

// PrintRunResult renders the decision box, the per-agent breakdown and,
// when enabled, each stage's reasoning.
func PrintRunResult(result trading.Result, showReasoning bool, elapsed time.Duration) {
	st := result.State
	d := st.Decision
	if d == nil {
		fmt.Println(errorStyle.Render("no decision produced"))
		return
	}

	var box strings.Builder
	fmt.Fprintf(&box, "%s  %d shares  (confidence %.0f%%)",
		strings.ToUpper(string(d.Action)), d.Quantity, d.Confidence*100)
	if st.Risk != nil {
		fmt.Fprintf(&box, "\nrisk score %d/10, position ceiling %.2f",
			st.Risk.RiskScore, st.Risk.MaxPositionValue)
	}
	fmt.Println(decisionStyle.Render(box.String()))

	if len(d.AgentSignals) > 0 {
		fmt.Println()
		for _, row := range d.AgentSignals {
			fmt.Printf("  %-22s %s %s\n",
				row.Agent,
				styleSignal(row.Signal),
				dimStyle.Render(fmt.Sprintf("%.0f%%", row.Confidence*100)))
		}
	}

	if showReasoning {
		printReasoning(st)
	}

	fmt.Println()
	if result.ReportPath != "" {
		fmt.Println(dimStyle.Render("report: " + result.ReportPath))
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("completed in %s", elapsed.Round(time.Millisecond))))
}

func printReasoning(st models.State) {
	for _, agent := range []string{consts.AgentTechnical, consts.AgentFundamentals, consts.AgentSentiment, consts.AgentValuation} {
		sig, ok := st.SignalFor(agent)
		if !ok {
			continue
		}
		fmt.Println()
		fmt.Printf("%s %s\n", titleStyle.Render(agent), styleSignal(sig.Direction))
		for key, detail := range sig.Reasoning {
			fmt.Printf("  %s: %s\n", dimStyle.Render(key), detail)
		}
	}

	if debate := st.Debate; debate != nil {
		fmt.Println()
		fmt.Printf("%s %s  %s\n", titleStyle.Render("debate"), styleSignal(debate.Signal), debate.Reasoning)
		for _, line := range debate.DebateSummary {
			fmt.Println("  " + line)
		}
	}

	if risk := st.Risk; risk != nil {
		fmt.Println()
		fmt.Printf("%s %s\n", titleStyle.Render("risk"), risk.Reasoning)
	}

	if st.Decision != nil && st.Decision.Reasoning != "" {
		fmt.Println()
		fmt.Printf("%s %s\n", titleStyle.Render("decision"), st.Decision.Reasoning)
	}
}

func styleSignal(direction models.Direction) string {
	switch direction {
	case models.Bullish:
		return bullishStyle.Render(string(direction))
	case models.Bearish:
		return bearishStyle.Render(string(direction))
	default:
		return neutralStyle.Render(string(direction))
	}
}
