// Package cli wires the cobra command tree: analysis runs, configuration
// inspection and the interactive prompt loop.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/hweilin/quantmind/config"
	"github.com/hweilin/quantmind/internal/llm"
	"github.com/hweilin/quantmind/internal/trading"
	"github.com/hweilin/quantmind/models"
)

const version = "1.0.0"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "quantmind",
		Short: "QuantMind - multi-signal trading decision engine",
		Long: `QuantMind runs a fixed analysis pipeline over a stock: four analysts
(technical, fundamentals, sentiment, valuation), opposing research theses,
a debate, a risk assessment and a final lot-quantized trading decision.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Root().PersistentFlags().GetBool("debug"); debug {
				cfg.Debug = true
			}
			return cfg.EnsureDirectories()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractiveMode(cfg)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	var (
		startStr string
		endStr   string
		cash     float64
		shares   int64
	)

	cmd := &cobra.Command{
		Use:   "analyze [TICKER]",
		Short: "Run the analysis pipeline for one ticker",
		Long: `Run the full analysis pipeline for a ticker and print the decision.
Example: quantmind analyze 600519 --end=2026-08-25 --cash=100000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := ""
			if len(args) == 1 {
				ticker = args[0]
			}
			if ticker == "" {
				var err error
				if ticker, err = PromptForTicker(); err != nil {
					return err
				}
			}

			start, err := parseDateFlag(startStr)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			end, err := parseDateFlag(endStr)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			return runAnalysis(cfg, trading.Params{
				Ticker:    ticker,
				StartDate: start,
				EndDate:   end,
				Portfolio: models.Portfolio{Cash: cash, Shares: shares},
			})
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "History start date (YYYY-MM-DD, default one year before end)")
	cmd.Flags().StringVar(&endStr, "end", "", "Analysis date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&cash, "cash", 100000, "Available cash")
	cmd.Flags().Int64Var(&shares, "shares", 0, "Shares currently held")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("QuantMind v%s\n", version)
		},
	}
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cfg)
		},
	})

	return configCmd
}

func runAnalysis(cfg *config.Config, params trading.Params) error {
	ctx := context.Background()
	logger := newLogger(cfg.Debug)

	svc, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("completion service: %w", err)
	}

	session := trading.NewSession(cfg, svc, logger)
	defer session.Close()

	PrintRunHeader(params.Ticker)
	started := time.Now()

	result, err := session.Run(ctx, params)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	PrintRunResult(result, cfg.ShowReasoning, time.Since(started))
	return nil
}

func showConfig(cfg *config.Config) {
	fmt.Println(titleStyle.Render("QuantMind Configuration"))
	fmt.Printf("Results Directory:   %s\n", cfg.ResultsDir)
	fmt.Printf("Data Directory:      %s\n", cfg.DataDir)
	fmt.Printf("Cache Directory:     %s\n", cfg.DataCacheDir)
	fmt.Println()
	fmt.Printf("LLM Provider:        %s\n", cfg.LLM.Provider)
	fmt.Printf("LLM Model:           %s\n", cfg.LLM.Model)
	fmt.Printf("LLM Base URL:        %s\n", cfg.LLM.BaseURL)
	fmt.Printf("Request Timeout:     %s\n", cfg.LLM.RequestTimeout)
	fmt.Printf("Max Retries:         %d\n", cfg.LLM.MaxRetries)
	fmt.Println()
	fmt.Printf("Online Tools:        %t\n", cfg.OnlineTools)
	fmt.Printf("Cache Enabled:       %t\n", cfg.CacheEnabled)
	fmt.Printf("Max News:            %d\n", cfg.MaxNews)
	fmt.Printf("Default Lot Size:    %d\n", cfg.DefaultLotSize)
	fmt.Println()
	fmt.Printf("LLM API Key:         %s\n", configuredMark(cfg.LLM.APIKey != ""))
	fmt.Printf("Longport Credentials: %s\n",
		configuredMark(cfg.LongportAppKey != "" && cfg.LongportAppSecret != "" && cfg.LongportAccessToken != ""))
}

func validateConfig(cfg *config.Config) error {
	fmt.Println(titleStyle.Render("Validating QuantMind Configuration"))

	fmt.Print("Directories... ")
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Println(errorStyle.Render("failed"))
		return err
	}
	fmt.Println(okStyle.Render("ok"))

	var warnings []string
	if cfg.LLM.APIKey == "" {
		warnings = append(warnings, "completion service API key not set (DEEPSEEK_API_KEY or OPENAI_API_KEY)")
	}
	if cfg.LongportAppKey == "" || cfg.LongportAppSecret == "" || cfg.LongportAccessToken == "" {
		warnings = append(warnings, "Longport credentials not set, lot sizes fall back to the default")
	}

	fmt.Print("Credentials... ")
	if len(warnings) == 0 {
		fmt.Println(okStyle.Render("ok"))
	} else {
		fmt.Println(warnStyle.Render(fmt.Sprintf("%d warnings", len(warnings))))
		for _, w := range warnings {
			fmt.Println("  " + warnStyle.Render("! ") + w)
		}
	}

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("the analysis pipeline cannot run without a completion service API key")
	}
	return nil
}

func runInteractiveMode(cfg *config.Config) error {
	fmt.Println(titleStyle.Render("QuantMind - multi-signal trading decision engine"))
	fmt.Println()

	for {
		ticker, err := PromptForTicker()
		if err != nil {
			// Ctrl-C inside survey surfaces as an error; exit cleanly.
			return nil
		}
		if ticker == "" {
			return nil
		}

		end, err := PromptForAnalysisDate()
		if err != nil {
			return nil
		}
		portfolio, err := PromptForPortfolio()
		if err != nil {
			return nil
		}

		if err := runAnalysis(cfg, trading.Params{
			Ticker:    ticker,
			EndDate:   end,
			Portfolio: portfolio,
		}); err != nil {
			fmt.Println(errorStyle.Render("analysis failed: " + err.Error()))
		}

		again, err := PromptForAnotherRun()
		if err != nil || !again {
			return nil
		}
		fmt.Println()
	}
}

func newLogger(debug bool) log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.Logger{
		Level:  level,
		Caller: 0,
		Writer: &log.ConsoleWriter{
			ColorOutput: true,
			Writer:      os.Stderr,
		},
	}
}

func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}

func configuredMark(ok bool) string {
	if ok {
		return okStyle.Render("configured")
	}
	return warnStyle.Render("not configured")
}
