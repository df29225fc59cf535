package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/hweilin/quantmind/models"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]+$`)

// PromptForTicker asks for a stock ticker. A-share codes are plain six
// digit strings; other markets may carry a suffix like 700.HK.
func PromptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Stock ticker (e.g. 600519, 000001, 700.HK):",
		Help:    "Six-digit A-share codes are resolved to their exchange automatically",
	}

	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(strings.ToUpper(val.(string)))
		if str == "" {
			return fmt.Errorf("ticker cannot be empty")
		}
		if len(str) > 12 {
			return fmt.Errorf("ticker too long (max 12 characters)")
		}
		if !tickerPattern.MatchString(str) {
			return fmt.Errorf("use letters, digits, dots and hyphens only")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(ticker)), nil
}

// PromptForAnalysisDate asks for the analysis date, defaulting to today.
func PromptForAnalysisDate() (time.Time, error) {
	var dateStr string
	prompt := &survey.Input{
		Message: "Analysis date (YYYY-MM-DD):",
		Default: time.Now().Format("2006-01-02"),
	}

	err := survey.AskOne(prompt, &dateStr, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return nil
		}
		if _, err := time.Parse("2006-01-02", str); err != nil {
			return fmt.Errorf("use the YYYY-MM-DD format")
		}
		return nil
	}))
	if err != nil {
		return time.Time{}, err
	}

	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", dateStr)
}

// PromptForPortfolio asks for the account state the decision runs against.
func PromptForPortfolio() (models.Portfolio, error) {
	cash, err := promptForNumber("Available cash:", "100000")
	if err != nil {
		return models.Portfolio{}, err
	}
	shares, err := promptForNumber("Shares currently held:", "0")
	if err != nil {
		return models.Portfolio{}, err
	}
	return models.Portfolio{Cash: cash, Shares: int64(shares)}, nil
}

// PromptForAnotherRun asks whether to analyze another ticker.
func PromptForAnotherRun() (bool, error) {
	var again bool
	prompt := &survey.Confirm{
		Message: "Analyze another ticker?",
		Default: false,
	}
	if err := survey.AskOne(prompt, &again); err != nil {
		return false, err
	}
	return again, nil
}

func promptForNumber(message, defaultValue string) (float64, error) {
	var raw string
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}

	err := survey.AskOne(prompt, &raw, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("enter a number")
		}
		if v < 0 {
			return fmt.Errorf("must not be negative")
		}
		return nil
	}))
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}
