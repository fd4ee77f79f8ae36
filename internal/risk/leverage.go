package risk

import "tradebot-go/internal/indicator"

// Tier maps an exclusive balance ceiling to the base leverage allowed
// underneath it.
type Tier struct {
	BalanceBelow float64
	Leverage     float64
}

// LeveragePolicy selects the multiplier applied at position open. With
// Dynamic off the fixed value is used as-is (clamped). With Dynamic on,
// base leverage comes from the balance tier table and is scaled down
// when realized volatility crosses the threshold.
type LeveragePolicy struct {
	Dynamic          bool
	Fixed            float64
	Tiers            []Tier
	MaxLeverage      float64
	MinLeverage      float64
	VolatilityPeriod int
	VolThreshold     float64
	VolScale         float64
}

// DefaultTiers is the balance-bracket table used when the config
// provides none: tiny accounts trade unlevered, growing accounts step up
// to the configured maximum.
func DefaultTiers() []Tier {
	return []Tier{
		{BalanceBelow: 20, Leverage: 1},
		{BalanceBelow: 50, Leverage: 2},
		{BalanceBelow: 100, Leverage: 3},
	}
}

// Select returns the leverage for the given balance and recent prices,
// always clamped to [MinLeverage, MaxLeverage].
func (p LeveragePolicy) Select(balance float64, prices []float64) float64 {
	min := p.MinLeverage
	if min <= 0 {
		min = DefaultMinLeverage
	}
	max := p.MaxLeverage
	if max <= 0 {
		max = DefaultMaxLeverage
	}

	if !p.Dynamic {
		return clamp(p.Fixed, min, max)
	}

	tiers := p.Tiers
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	lev := max
	for _, t := range tiers {
		if balance < t.BalanceBelow {
			lev = t.Leverage
			break
		}
	}

	period := p.VolatilityPeriod
	if period <= 0 {
		period = 20
	}
	threshold := p.VolThreshold
	if threshold <= 0 {
		threshold = DefaultVolThreshold
	}
	scale := p.VolScale
	if scale <= 0 || scale > 1 {
		scale = DefaultVolScale
	}
	if indicator.RelativeRange(prices, period) > threshold {
		lev *= scale
	}
	return clamp(lev, min, max)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
