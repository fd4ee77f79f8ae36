package position

import (
	"math"
	"testing"

	sig "tradebot-go/internal/signal"
)

func longPos(entry float64) *Position {
	return &Position{
		Symbol:     "BTCUSDT",
		Side:       sig.Buy,
		EntryPrice: entry,
		Size:       0.01,
		RiskPct:    0.04,
		Leverage:   2,
		Allocation: 10,
		HighWater:  entry,
	}
}

func TestHighWaterMonotoneLong(t *testing.T) {
	p := longPos(100)
	rules := ExitRules{}
	for _, px := range []float64{101, 105, 103, 99, 104} {
		Evaluate(p, px, rules)
	}
	if p.HighWater != 105 {
		t.Fatalf("high water must track the best price, got %.2f", p.HighWater)
	}
}

func TestHighWaterMonotoneShort(t *testing.T) {
	p := &Position{Symbol: "ETHUSDT", Side: sig.Sell, EntryPrice: 100, HighWater: 100, Allocation: 10, Leverage: 1}
	rules := ExitRules{}
	for _, px := range []float64{99, 95, 97, 101} {
		Evaluate(p, px, rules)
	}
	if p.HighWater != 95 {
		t.Fatalf("short high water must track the trough, got %.2f", p.HighWater)
	}
}

func TestTrailingStopLong(t *testing.T) {
	// entry=100, high water carried to 110, trailing 3%: the stop sits
	// at 106.7, so 106 triggers.
	p := longPos(100)
	p.HighWater = 110
	rules := ExitRules{TrailingEnabled: true, TrailingPct: 0.03}
	reason, exited := Evaluate(p, 106, rules)
	if !exited || reason != ExitTrailingStop {
		t.Fatalf("expected trailing stop, got %q exited=%v", reason, exited)
	}
}

func TestTrailingStopNotYet(t *testing.T) {
	p := longPos(100)
	p.HighWater = 110
	rules := ExitRules{TrailingEnabled: true, TrailingPct: 0.03}
	if reason, exited := Evaluate(p, 106.8, rules); exited {
		t.Fatalf("price above the stop must not trigger, got %q", reason)
	}
}

func TestTrailingStopShort(t *testing.T) {
	p := &Position{Symbol: "ETHUSDT", Side: sig.Sell, EntryPrice: 100, HighWater: 90, Allocation: 10, Leverage: 1}
	rules := ExitRules{TrailingEnabled: true, TrailingPct: 0.03}
	reason, exited := Evaluate(p, 93, rules)
	if !exited || reason != ExitTrailingStop {
		t.Fatalf("expected short trailing stop at 92.7, got %q exited=%v", reason, exited)
	}
}

func TestStopLossLong(t *testing.T) {
	// entry=100, stop 5%, price 94: P/L −6% breaches the stop.
	p := longPos(100)
	rules := ExitRules{StopLossPct: 0.05, TakeProfitPct: 0.10}
	reason, exited := Evaluate(p, 94, rules)
	if !exited || reason != ExitStopLoss {
		t.Fatalf("expected stop loss, got %q exited=%v", reason, exited)
	}
}

func TestTakeProfitLong(t *testing.T) {
	p := longPos(100)
	rules := ExitRules{StopLossPct: 0.05, TakeProfitPct: 0.10}
	reason, exited := Evaluate(p, 111, rules)
	if !exited || reason != ExitTakeProfit {
		t.Fatalf("expected take profit, got %q exited=%v", reason, exited)
	}
}

func TestTrailingStopShortCircuitsFixedExits(t *testing.T) {
	// A collapse that breaches both the trailing stop and the fixed
	// stop reports only the trailing reason: it is evaluated first.
	p := longPos(100)
	p.HighWater = 110
	rules := ExitRules{StopLossPct: 0.05, TakeProfitPct: 0.10, TrailingEnabled: true, TrailingPct: 0.03}
	reason, exited := Evaluate(p, 90, rules)
	if !exited || reason != ExitTrailingStop {
		t.Fatalf("trailing stop must take priority, got %q", reason)
	}
}

func TestHighWaterUpdatesBeforeTrailingCheck(t *testing.T) {
	// A new high this tick resets the trailing reference before the
	// retrace check, so the same tick cannot trigger on a stale mark.
	p := longPos(100)
	p.HighWater = 104
	rules := ExitRules{TrailingEnabled: true, TrailingPct: 0.03}
	if reason, exited := Evaluate(p, 108, rules); exited {
		t.Fatalf("fresh high must not trigger, got %q", reason)
	}
	if p.HighWater != 108 {
		t.Fatalf("high water should have advanced to 108, got %.2f", p.HighWater)
	}
}

func TestRealizedPnLLeveraged(t *testing.T) {
	p := longPos(100)
	pnl := p.RealizedPnL(106)
	// allocation 10 × 6% move × 2x leverage
	if math.Abs(pnl-1.2) > 1e-9 {
		t.Fatalf("expected 1.2, got %.6f", pnl)
	}
	short := &Position{Side: sig.Sell, EntryPrice: 100, Allocation: 10, Leverage: 2}
	if math.Abs(short.RealizedPnL(94)-1.2) > 1e-9 {
		t.Fatalf("short pnl wrong: %.6f", short.RealizedPnL(94))
	}
}
