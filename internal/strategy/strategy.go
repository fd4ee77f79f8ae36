// Package strategy contains trading signal generation logic wired into
// per-symbol price windows.
package strategy

import (
	"strings"

	sig "tradebot-go/internal/signal"
)

// Entry is a trade bias produced by a strategy: the direction, the risk
// fraction to allocate, and a label identifying the producing rule.
type Entry struct {
	Side       sig.Side
	RiskPct    float64
	SignalType string
}

// Strategy evaluates one symbol's price window and returns an entry, or
// nil when the rule does not fire this tick.
type Strategy interface {
	Evaluate(window *sig.Window) *Entry
	Name() string
}

// Chain tries strategies in fixed priority order and returns the first
// entry produced. At most one entry fires per tick.
type Chain []Strategy

// Evaluate walks the chain in order.
func (c Chain) Evaluate(window *sig.Window) *Entry {
	for _, s := range c {
		if entry := s.Evaluate(window); entry != nil {
			return entry
		}
	}
	return nil
}

// Name joins the member names for logging.
func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	DropThreshold    float64
	RiseThreshold    float64
	HFMTRiskPct      float64
	RSIPeriod        int
	VWAPPeriod       int
	BaseRiskPct      float64
	RSIBoostPct      float64
	DeviationBoost   float64
	DeviationTrigger float64
	MinRiskPct       float64
	MaxRiskPct       float64
}

// Build returns the strategy chain matching the configured mode. The
// default mode tries micro-momentum first and falls back to
// mean-reversion, mirroring the priority order of the evaluation loop.
func Build(mode string, params Params) Strategy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "hfmt":
		return NewHFMT(params.DropThreshold, params.RiseThreshold, params.HFMTRiskPct)
	case "highreturn", "high_return":
		return NewHighReturn(params)
	default:
		return Chain{
			NewHFMT(params.DropThreshold, params.RiseThreshold, params.HFMTRiskPct),
			NewHighReturn(params),
		}
	}
}
