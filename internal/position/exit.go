package position

import sig "tradebot-go/internal/signal"

// ExitReason labels the terminal transition an open position took.
type ExitReason string

const (
	// ExitTrailingStop fires when price retraces from the high-water
	// mark by the trailing percentage.
	ExitTrailingStop ExitReason = "trailing_stop"
	// ExitStopLoss fires when the unrealized loss reaches the stop.
	ExitStopLoss ExitReason = "stop_loss"
	// ExitTakeProfit fires when the unrealized gain reaches the target.
	ExitTakeProfit ExitReason = "take_profit"
)

// ExitRules carries the exit thresholds, all expressed as fractions.
type ExitRules struct {
	StopLossPct     float64
	TakeProfitPct   float64
	TrailingEnabled bool
	TrailingPct     float64
}

// Evaluate advances the exit state machine for one tick. The high-water
// mark is updated first and never moves against the position. The
// trailing stop is checked before the fixed thresholds and, when it
// triggers, short-circuits them; variants of this rule disagree on the
// ordering, so this sequence is fixed and covered by tests. At most one
// reason is returned per tick.
func Evaluate(p *Position, price float64, rules ExitRules) (ExitReason, bool) {
	if p.Side == sig.Buy {
		if price > p.HighWater {
			p.HighWater = price
		}
	} else {
		if price < p.HighWater {
			p.HighWater = price
		}
	}

	if rules.TrailingEnabled && rules.TrailingPct > 0 {
		if p.Side == sig.Buy && price <= p.HighWater*(1-rules.TrailingPct) {
			return ExitTrailingStop, true
		}
		if p.Side == sig.Sell && price >= p.HighWater*(1+rules.TrailingPct) {
			return ExitTrailingStop, true
		}
	}

	pl := p.UnrealizedPct(price)
	if rules.StopLossPct > 0 && pl <= -rules.StopLossPct {
		return ExitStopLoss, true
	}
	if rules.TakeProfitPct > 0 && pl >= rules.TakeProfitPct {
		return ExitTakeProfit, true
	}
	return "", false
}
