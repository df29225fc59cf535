package dataflows

import (
	"context"
	"path/filepath"
	"time"

	"github.com/phuslu/log"

	"github.com/hweilin/quantmind/config"
	"github.com/hweilin/quantmind/models"
)

// Provider bundles the market data sources behind one façade. Price
// history comes from Yahoo, statements from EastMoney, news from the
// Google News feed and lot sizes from Longport when credentials exist.
type Provider struct {
	cfg       *config.Config
	yahoo     *YahooClient
	eastmoney *EastMoneyClient
	news      *NewsClient
	longport  *LongportClient
	logger    log.Logger
}

func NewProvider(cfg *config.Config, logger log.Logger) *Provider {
	p := &Provider{
		cfg:       cfg,
		yahoo:     NewYahooClient(cfg),
		eastmoney: NewEastMoneyClient(cfg),
		news:      NewNewsClient(cfg),
		logger:    logger,
	}

	lp, err := NewLongportClient(cfg)
	if err != nil {
		logger.Debug().Err(err).Msg("longport unavailable, using default lot size")
	} else {
		p.longport = lp
	}
	return p
}

func (p *Provider) Close() {
	if p.longport != nil {
		p.longport.Close()
	}
}

// PriceHistory returns daily bars for the window, falling back to
// previously saved files when online tools are disabled.
func (p *Provider) PriceHistory(symbol string, start, end time.Time) ([]models.PriceBar, error) {
	if !p.cfg.OnlineTools {
		return p.yahoo.GetOfflinePriceHistory(p.cfg, symbol, start, end)
	}

	bars, err := p.yahoo.GetPriceHistory(symbol, start, end)
	if err != nil {
		return nil, err
	}

	// Keep a copy for offline runs.
	path := offlinePricePath(p.cfg, symbol, start, end)
	if saveErr := SaveDataToFile(bars, path); saveErr != nil {
		p.logger.Warn().Err(saveErr).Str("path", path).Msg("failed to save price history")
	}
	return bars, nil
}

// Financials returns statements and ratios. The market cap comes from
// Yahoo when EastMoney does not report one.
func (p *Provider) Financials(symbol string) (models.Financials, error) {
	fin, err := p.eastmoney.GetFinancials(symbol)
	if err != nil {
		return models.Financials{}, err
	}

	if fin.MarketCap == 0 {
		cap, capErr := p.yahoo.GetMarketCap(QualifySymbol(symbol))
		if capErr != nil {
			p.logger.Warn().Err(capErr).Str("symbol", symbol).Msg("market cap unavailable")
		} else {
			fin.MarketCap = cap
		}
	}
	return fin, nil
}

// News returns up to max recent articles mentioning the symbol.
func (p *Provider) News(symbol string, start, end time.Time, max int) ([]models.NewsArticle, error) {
	return p.news.GetCompanyNews(NewsParams{
		Query:      symbol,
		StartDate:  start,
		EndDate:    end,
		MaxResults: max,
	})
}

// LotSize resolves the exchange board lot, or the configured default when
// no quote session is available.
func (p *Provider) LotSize(ctx context.Context, symbol string) int64 {
	if p.longport == nil {
		return p.cfg.DefaultLotSize
	}

	lot, err := p.longport.GetLotSize(ctx, symbol)
	if err != nil {
		p.logger.Warn().Err(err).Str("symbol", symbol).Msg("lot size lookup failed")
		return p.cfg.DefaultLotSize
	}
	return lot
}

func offlinePricePath(cfg *config.Config, symbol string, start, end time.Time) string {
	name := NormalizeSymbol(symbol) + "_" + start.Format("2006-01-02") + "_" +
		end.Format("2006-01-02") + ".json"
	return filepath.Join(cfg.DataDir, "market_data", name)
}
