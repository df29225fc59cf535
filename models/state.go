package models

import "time"

// State is the run context threaded through the pipeline. It is passed by
// value: a stage receives a copy, attaches its own result with one of the
// With* helpers and returns the new copy. No stage modifies a predecessor's
// output.
type State struct {
	Ticker    string
	StartDate time.Time
	EndDate   time.Time
	Portfolio Portfolio
	LotSize   int64

	Prices     []PriceBar
	Financials *Financials
	News       []NewsArticle

	Signals    map[string]Signal
	BullThesis *Thesis
	BearThesis *Thesis
	Debate     *DebateResult
	Risk       *RiskAssessment
	Decision   *Decision
}

// NewState builds the initial run context for one (ticker, date range) run.
func NewState(ticker string, start, end time.Time, portfolio Portfolio, lotSize int64) State {
	if lotSize < 1 {
		lotSize = 1
	}
	return State{
		Ticker:    ticker,
		StartDate: start,
		EndDate:   end,
		Portfolio: portfolio,
		LotSize:   lotSize,
		Signals:   map[string]Signal{},
	}
}

// WithSignal returns a copy of the state carrying the given signal. The
// signal map is cloned so earlier copies of the state stay unchanged.
func (s State) WithSignal(sig Signal) State {
	signals := make(map[string]Signal, len(s.Signals)+1)
	for k, v := range s.Signals {
		signals[k] = v
	}
	signals[sig.Agent] = sig
	s.Signals = signals
	return s
}

// SignalFor looks up the signal produced by the named agent.
func (s State) SignalFor(agent string) (Signal, bool) {
	sig, ok := s.Signals[agent]
	return sig, ok
}

// LastPrice is the most recent close in the loaded history.
func (s State) LastPrice() float64 {
	return LastClose(s.Prices)
}
