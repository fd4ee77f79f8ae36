// Package indicator derives momentum and deviation measures from raw
// price series. All functions are pure; callers own the windows.
package indicator

// RSI computes a Wilder-style Relative Strength Index over the most
// recent period deltas of prices. Returns the neutral value 50 when the
// series is too short to cover period+1 points. When the average loss is
// zero (including perfectly flat series) the index saturates at 100.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50.0
	}
	gains, losses := 0.0, 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// VWAPProxy is the arithmetic mean of the last period prices, or of the
// whole series when shorter. It is a deviation reference only; no volume
// weighting is applied.
func VWAPProxy(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || period > len(prices) {
		period = len(prices)
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period)
}

// DeviationPct is the absolute distance of price from reference,
// expressed as a percentage of the reference. Zero when the reference is
// not positive.
func DeviationPct(price, reference float64) float64 {
	if reference <= 0 {
		return 0
	}
	d := price - reference
	if d < 0 {
		d = -d
	}
	return d / reference * 100.0
}

// RelativeRange measures realized volatility as (max-min)/min over the
// last period prices. Zero for series shorter than two points or with a
// non-positive minimum.
func RelativeRange(prices []float64, period int) float64 {
	if period <= 0 || period > len(prices) {
		period = len(prices)
	}
	if period < 2 {
		return 0
	}
	window := prices[len(prices)-period:]
	lo, hi := window[0], window[0]
	for _, p := range window[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if lo <= 0 {
		return 0
	}
	return (hi - lo) / lo
}
