package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"

	"github.com/hweilin/quantmind/config"
	"github.com/hweilin/quantmind/models"
)

// YahooClient fetches daily price history and quote snapshots from Yahoo
// Finance.
type YahooClient struct {
	cache *CacheManager
}

func NewYahooClient(cfg *config.Config) *YahooClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "yahoo")
	return &YahooClient{
		cache: NewCacheManager(cacheDir, 24*time.Hour, cfg.CacheEnabled),
	}
}

// GetPriceHistory returns daily bars for [start, end], oldest first.
func (yc *YahooClient) GetPriceHistory(symbol string, start, end time.Time) ([]models.PriceBar, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]string{
		"symbol": symbol,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}
	var cached []models.PriceBar
	if yc.cache.Get("yahoo", "history", cacheKey, &cached) {
		return cached, nil
	}

	var bars []models.PriceBar
	err := WithRetry(DefaultRetryConfig(), func() error {
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)
		bars = bars[:0]
		for iter.Next() {
			bar := iter.Bar()
			bars = append(bars, models.PriceBar{
				Symbol: symbol,
				Date:   time.Unix(int64(bar.Timestamp), 0),
				Open:   bar.Open,
				High:   bar.High,
				Low:    bar.Low,
				Close:  bar.Close,
				Volume: int64(bar.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("fetch price history for %s: %w", symbol, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no price data for %s between %s and %s",
			symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	yc.cache.Set("yahoo", "history", cacheKey, bars)
	return bars, nil
}

// GetMarketCap returns the current market capitalization, or an error if
// Yahoo does not report one for the symbol.
func (yc *YahooClient) GetMarketCap(symbol string) (float64, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return 0, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached float64
	if yc.cache.Get("yahoo", "market_cap", symbol, &cached) {
		return cached, nil
	}

	var marketCap float64
	err := WithRetry(DefaultRetryConfig(), func() error {
		q, err := equity.Get(symbol)
		if err != nil {
			return fmt.Errorf("fetch quote for %s: %w", symbol, err)
		}
		marketCap = float64(q.MarketCap)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if marketCap <= 0 {
		return 0, fmt.Errorf("no market cap reported for %s", symbol)
	}

	yc.cache.Set("yahoo", "market_cap", symbol, marketCap)
	return marketCap, nil
}

// GetOfflinePriceHistory loads bars previously saved under the data
// directory, for runs with online tools disabled.
func (yc *YahooClient) GetOfflinePriceHistory(cfg *config.Config, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	symbol = NormalizeSymbol(symbol)

	path := filepath.Join(cfg.DataDir, "market_data",
		fmt.Sprintf("%s_%s_%s.json", symbol,
			start.Format("2006-01-02"), end.Format("2006-01-02")))

	var bars []models.PriceBar
	if err := LoadDataFromFile(path, &bars); err != nil {
		return nil, fmt.Errorf("offline price data not available for %s: %w", symbol, err)
	}
	return bars, nil
}
