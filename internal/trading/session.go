// Package trading ties data loading, the analysis pipeline and report
// persistence into one run per (ticker, date range).
package trading

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/phuslu/log"

	"github.com/hweilin/quantmind/config"
	"github.com/hweilin/quantmind/internal/dataflows"
	"github.com/hweilin/quantmind/internal/graph"
	"github.com/hweilin/quantmind/internal/llm"
	"github.com/hweilin/quantmind/models"
)

// defaultLookback is the price-history window when no start date is given.
const defaultLookback = 365 * 24 * time.Hour

// Params describe one analysis run.
type Params struct {
	Ticker    string
	StartDate time.Time
	EndDate   time.Time
	Portfolio models.Portfolio
}

// Result carries the final pipeline state and where the report landed.
type Result struct {
	State      models.State
	ReportPath string
}

// Session owns the data provider and pipeline for a sequence of runs.
type Session struct {
	cfg      *config.Config
	provider *dataflows.Provider
	pipeline *graph.Pipeline
	logger   log.Logger
}

func NewSession(cfg *config.Config, svc *llm.Client, logger log.Logger) *Session {
	return &Session{
		cfg:      cfg,
		provider: dataflows.NewProvider(cfg, logger),
		pipeline: graph.New(svc, graph.Options{MaxNews: cfg.MaxNews}, logger),
		logger:   logger,
	}
}

func (s *Session) Close() {
	s.provider.Close()
}

// Run loads the market data, executes the pipeline and persists the
// markdown report under <results>/<ticker>/<end-date>/.
func (s *Session) Run(ctx context.Context, params Params) (Result, error) {
	if err := dataflows.ValidateSymbol(params.Ticker); err != nil {
		return Result{}, err
	}

	end := params.EndDate
	if end.IsZero() {
		end = time.Now()
	}
	start := params.StartDate
	if start.IsZero() {
		start = end.Add(-defaultLookback)
	}
	if !start.Before(end) {
		return Result{}, fmt.Errorf("start date %s is not before end date %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	s.logger.Info().
		Str("ticker", params.Ticker).
		Str("start", start.Format("2006-01-02")).
		Str("end", end.Format("2006-01-02")).
		Msg("analysis run started")

	st, err := s.loadState(ctx, params.Ticker, start, end, params.Portfolio)
	if err != nil {
		return Result{}, err
	}

	final, err := s.pipeline.Run(ctx, st)
	if err != nil {
		return Result{}, err
	}

	path, err := s.persistReport(final, end)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist report")
		path = ""
	}

	return Result{State: final, ReportPath: path}, nil
}

func (s *Session) loadState(ctx context.Context, ticker string, start, end time.Time, portfolio models.Portfolio) (models.State, error) {
	prices, err := s.provider.PriceHistory(ticker, start, end)
	if err != nil {
		return models.State{}, fmt.Errorf("load price history: %w", err)
	}

	fin, err := s.provider.Financials(ticker)
	if err != nil {
		return models.State{}, fmt.Errorf("load financials: %w", err)
	}

	news, err := s.provider.News(ticker, start, end, s.cfg.MaxNews)
	if err != nil {
		// News is optional input: the sentiment stage degrades to neutral.
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("news unavailable")
		news = nil
	}

	lot := s.provider.LotSize(ctx, ticker)

	st := models.NewState(ticker, start, end, portfolio, lot)
	st.Prices = prices
	st.Financials = &fin
	st.News = news
	return st, nil
}

func (s *Session) persistReport(st models.State, end time.Time) (string, error) {
	dir := filepath.Join(s.cfg.ResultsDir, dataflows.NormalizeSymbol(st.Ticker), end.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	path := filepath.Join(dir, "report.md")
	if err := os.WriteFile(path, []byte(RenderReport(st)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	if st.Decision != nil {
		if err := dataflows.SaveDataToFile(st.Decision, filepath.Join(dir, "decision.json")); err != nil {
			return "", fmt.Errorf("write decision: %w", err)
		}
	}
	return path, nil
}
