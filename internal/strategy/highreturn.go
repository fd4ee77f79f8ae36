package strategy

import (
	"tradebot-go/internal/indicator"
	sig "tradebot-go/internal/signal"
)

// HighReturn is the RSI/VWAP mean-reversion rule. RSI below 30 biases a
// buy, above 70 a sell; deviation from the VWAP proxy raises the risk
// fraction but never picks a direction on its own, so an adjusted risk
// can be computed and then discarded when RSI sits in the neutral band.
// That asymmetry is deliberate and matched by the tests.
type HighReturn struct {
	rsiPeriod        int
	vwapPeriod       int
	baseRiskPct      float64
	rsiBoostPct      float64
	deviationBoost   float64
	deviationTrigger float64
	minRiskPct       float64
	maxRiskPct       float64
}

// NewHighReturn builds the mean-reversion rule with the standard
// defaults: RSI(14), VWAP(20), 4% base risk, 3% boosts, 0.5% deviation
// trigger, risk clamped to [2%, 10%].
func NewHighReturn(params Params) *HighReturn {
	h := &HighReturn{
		rsiPeriod:        params.RSIPeriod,
		vwapPeriod:       params.VWAPPeriod,
		baseRiskPct:      params.BaseRiskPct,
		rsiBoostPct:      params.RSIBoostPct,
		deviationBoost:   params.DeviationBoost,
		deviationTrigger: params.DeviationTrigger,
		minRiskPct:       params.MinRiskPct,
		maxRiskPct:       params.MaxRiskPct,
	}
	if h.rsiPeriod <= 0 {
		h.rsiPeriod = 14
	}
	if h.vwapPeriod <= 0 {
		h.vwapPeriod = 20
	}
	if h.baseRiskPct <= 0 {
		h.baseRiskPct = 0.04
	}
	if h.rsiBoostPct <= 0 {
		h.rsiBoostPct = 0.03
	}
	if h.deviationBoost <= 0 {
		h.deviationBoost = 0.03
	}
	if h.deviationTrigger <= 0 {
		h.deviationTrigger = 0.5
	}
	if h.minRiskPct <= 0 {
		h.minRiskPct = 0.02
	}
	if h.maxRiskPct <= 0 {
		h.maxRiskPct = 0.10
	}
	return h
}

// Name returns the identifier used in journal rows and logs.
func (h *HighReturn) Name() string { return "HighReturn" }

// Evaluate computes RSI and VWAP deviation and emits a clamped-risk
// entry when RSI leaves the neutral band.
func (h *HighReturn) Evaluate(window *sig.Window) *Entry {
	prices := window.Prices()
	if len(prices) == 0 {
		return nil
	}
	current := prices[len(prices)-1]

	rsi := indicator.RSI(prices, h.rsiPeriod)
	reference := indicator.VWAPProxy(prices, h.vwapPeriod)
	deviation := indicator.DeviationPct(current, reference)

	risk := h.baseRiskPct
	var side sig.Side
	switch {
	case rsi < 30:
		side = sig.Buy
		risk += h.rsiBoostPct
	case rsi > 70:
		side = sig.Sell
		risk += h.rsiBoostPct
	}
	if deviation > h.deviationTrigger {
		risk += h.deviationBoost
	}
	if side == "" {
		return nil
	}

	if risk < h.minRiskPct {
		risk = h.minRiskPct
	}
	if risk > h.maxRiskPct {
		risk = h.maxRiskPct
	}
	return &Entry{Side: side, RiskPct: risk, SignalType: h.Name()}
}
