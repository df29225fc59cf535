package models

// Portfolio is the caller-owned account state. It is read-only within a
// run; the caller is responsible for serializing runs per portfolio.
type Portfolio struct {
	Cash   float64 `json:"cash"`
	Shares int64   `json:"shares"`
}

// Value returns the total portfolio value at the given price.
func (p Portfolio) Value(lastPrice float64) float64 {
	return p.Cash + float64(p.Shares)*lastPrice
}

// AgentSignal is one row of the per-signal breakdown attached to a Decision.
type AgentSignal struct {
	Agent      string    `json:"agent_name"`
	Signal     Direction `json:"signal"`
	Confidence float64   `json:"confidence"`
}

// Decision is the terminal artifact of one analysis run. Quantity is always
// a non-negative integer multiple of the exchange lot size.
type Decision struct {
	Action       Action        `json:"action"`
	Quantity     int64         `json:"quantity"`
	Confidence   float64       `json:"confidence"`
	AgentSignals []AgentSignal `json:"agent_signals"`
	Reasoning    string        `json:"reasoning"`
}
