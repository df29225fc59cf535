package dataflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"

	"github.com/hweilin/quantmind/config"
)

// LongportClient resolves exchange static information, in particular the
// board lot size used to quantize orders.
type LongportClient struct {
	quoteCtx *quote.QuoteContext
}

// NewLongportClient connects a quote context using the configured
// credentials. Missing credentials are an error so callers can fall back
// to the default lot size.
func NewLongportClient(cfg *config.Config) (*LongportClient, error) {
	if cfg.LongportAppKey == "" || cfg.LongportAppSecret == "" || cfg.LongportAccessToken == "" {
		return nil, errors.New("longport credentials not configured")
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(
		cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken))
	if err != nil {
		return nil, fmt.Errorf("longport config: %w", err)
	}
	quoteCtx, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, fmt.Errorf("longport quote context: %w", err)
	}
	return &LongportClient{quoteCtx: quoteCtx}, nil
}

func (lc *LongportClient) Close() {
	if lc.quoteCtx != nil {
		lc.quoteCtx.Close()
	}
}

// GetLotSize returns the exchange board lot for a symbol.
func (lc *LongportClient) GetLotSize(ctx context.Context, symbol string) (int64, error) {
	if lc.quoteCtx == nil {
		return 0, errors.New("quote context is nil")
	}

	infos, err := lc.quoteCtx.StaticInfo(ctx, []string{QualifySymbol(symbol)})
	if err != nil {
		return 0, fmt.Errorf("static info for %s: %w", symbol, err)
	}
	if len(infos) == 0 || infos[0].LotSize <= 0 {
		return 0, fmt.Errorf("no lot size reported for %s", symbol)
	}
	return int64(infos[0].LotSize), nil
}

// QualifySymbol appends the exchange suffix expected by the quote API.
// Mainland codes resolve by leading digit: 6xxxxx trades in Shanghai,
// everything else in Shenzhen. Symbols already carrying a suffix pass
// through unchanged.
func QualifySymbol(symbol string) string {
	symbol = NormalizeSymbol(symbol)
	if strings.Contains(symbol, ".") {
		return symbol
	}
	if len(symbol) == 6 && symbol[0] >= '0' && symbol[0] <= '9' {
		if strings.HasPrefix(symbol, "6") {
			return symbol + ".SH"
		}
		return symbol + ".SZ"
	}
	return symbol
}
