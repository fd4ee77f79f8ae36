package strategy

import (
	sig "tradebot-go/internal/signal"
)

// HFMT is the high-frequency micro-trade rule: it compares the two most
// recent prices and buys small dips, sells small pops. Thresholds are
// fractions (0.003 = 0.3%).
type HFMT struct {
	dropThreshold float64
	riseThreshold float64
	riskPct       float64
}

// NewHFMT builds the micro-momentum rule, defaulting thresholds to 0.3%
// and the risk fraction to 3%.
func NewHFMT(dropThreshold, riseThreshold, riskPct float64) *HFMT {
	if dropThreshold <= 0 {
		dropThreshold = 0.003
	}
	if riseThreshold <= 0 {
		riseThreshold = 0.003
	}
	if riskPct <= 0 {
		riskPct = 0.03
	}
	return &HFMT{dropThreshold: dropThreshold, riseThreshold: riseThreshold, riskPct: riskPct}
}

// Name returns the identifier used in journal rows and logs.
func (h *HFMT) Name() string { return "HFMT" }

// Evaluate fires on the delta between the last two prices. Windows with
// fewer than two prices never signal.
func (h *HFMT) Evaluate(window *sig.Window) *Entry {
	last := window.Last(2)
	if len(last) < 2 {
		return nil
	}
	prev, current := last[0], last[1]
	if prev <= 0 {
		return nil
	}
	switch {
	case current <= prev*(1-h.dropThreshold):
		return &Entry{Side: sig.Buy, RiskPct: h.riskPct, SignalType: h.Name()}
	case current >= prev*(1+h.riseThreshold):
		return &Entry{Side: sig.Sell, RiskPct: h.riskPct, SignalType: h.Name()}
	default:
		return nil
	}
}
