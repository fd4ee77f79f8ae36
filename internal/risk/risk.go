// Package risk converts risk fractions and account equity into order
// sizes, and selects leverage under the configured policy.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Default bounds applied when the config leaves them zero.
const (
	DefaultMinRiskPct   = 0.02
	DefaultMaxRiskPct   = 0.10
	DefaultPrecision    = 8
	DefaultMinLeverage  = 1.0
	DefaultMaxLeverage  = 5.0
	DefaultVolThreshold = 0.05
	DefaultVolScale     = 0.5
)

// SizingError marks an entry that must be skipped this tick: the inputs
// cannot produce a valid order and nothing may be submitted.
type SizingError struct {
	Symbol string
	Reason string
}

func (e *SizingError) Error() string {
	return fmt.Sprintf("sizing %s: %s", e.Symbol, e.Reason)
}

// Sizing is the result of a successful size computation.
type Sizing struct {
	Size       float64
	RiskPct    float64 // effective, after clamping
	Leverage   float64
	Allocation float64 // quote-currency notional before leverage
}

// Sizer turns (balance, risk fraction, price) into a floored base-asset
// quantity. Precision overrides map symbol to decimal places; everything
// else uses the default.
type Sizer struct {
	minRiskPct float64
	maxRiskPct float64
	precision  int32
	overrides  map[string]int32
}

// NewSizer builds a sizer, substituting defaults for non-positive bounds.
func NewSizer(minRiskPct, maxRiskPct float64, precision int, overrides map[string]int) *Sizer {
	if minRiskPct <= 0 {
		minRiskPct = DefaultMinRiskPct
	}
	if maxRiskPct <= 0 {
		maxRiskPct = DefaultMaxRiskPct
	}
	if precision <= 0 {
		precision = DefaultPrecision
	}
	s := &Sizer{
		minRiskPct: minRiskPct,
		maxRiskPct: maxRiskPct,
		precision:  int32(precision),
	}
	if len(overrides) > 0 {
		s.overrides = make(map[string]int32, len(overrides))
		for sym, p := range overrides {
			if p >= 0 {
				s.overrides[sym] = int32(p)
			}
		}
	}
	return s
}

// ClampRisk bounds a risk fraction to the configured window.
func (s *Sizer) ClampRisk(riskPct float64) float64 {
	if riskPct < s.minRiskPct {
		return s.minRiskPct
	}
	if riskPct > s.maxRiskPct {
		return s.maxRiskPct
	}
	return riskPct
}

// Size computes the leveraged order quantity. It fails closed: a
// non-positive price or balance yields a SizingError and no order may be
// placed from it.
func (s *Sizer) Size(symbol string, balance, riskPct, leverage, price float64) (Sizing, error) {
	if price <= 0 {
		return Sizing{}, &SizingError{Symbol: symbol, Reason: fmt.Sprintf("non-positive price %.8f", price)}
	}
	if balance <= 0 {
		return Sizing{}, &SizingError{Symbol: symbol, Reason: fmt.Sprintf("non-positive balance %.2f", balance)}
	}
	if leverage <= 0 {
		leverage = DefaultMinLeverage
	}

	effective := s.ClampRisk(riskPct)
	allocation := balance * effective
	leveraged := allocation * leverage

	qty := decimal.NewFromFloat(leveraged).
		Div(decimal.NewFromFloat(price)).
		RoundDown(s.precisionFor(symbol))
	size, _ := qty.Float64()
	if size <= 0 {
		return Sizing{}, &SizingError{Symbol: symbol, Reason: "allocation rounds to zero size"}
	}
	return Sizing{Size: size, RiskPct: effective, Leverage: leverage, Allocation: allocation}, nil
}

func (s *Sizer) precisionFor(symbol string) int32 {
	if p, ok := s.overrides[symbol]; ok {
		return p
	}
	return s.precision
}
