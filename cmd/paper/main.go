// Binary paper runs a short deterministic session against the stub feed
// and prints the resulting account and trade log. Useful for eyeballing
// the pipeline without touching a venue.
package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"tradebot-go/internal/account"
	"tradebot-go/internal/engine"
	"tradebot-go/internal/exchange"
	"tradebot-go/internal/execution"
	"tradebot-go/internal/journal"
	"tradebot-go/internal/position"
	"tradebot-go/internal/risk"
	sig "tradebot-go/internal/signal"
	"tradebot-go/internal/strategy"
	"tradebot-go/internal/util"
)

func main() {
	log := util.NewLogger("info")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	symbols := []string{"BTCUSDT"}
	feed := exchange.NewFeed(exchange.ProviderStub, symbols, log, exchange.WithStubStep(-0.5))
	ticks := make(chan sig.Tick, 256)
	go func() { _ = feed.Run(ctx, ticks) }()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
			}
		}
	}()

	trades, err := journal.Open(filepath.Join("data", "paper-trades.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open journal")
	}
	defer trades.Close()

	acct := account.New(1000)
	eng := engine.New(log, engine.Options{
		Symbols:      symbols,
		TickInterval: 250 * time.Millisecond,
		ExitRules: position.ExitRules{
			StopLossPct:     0.05,
			TakeProfitPct:   0.10,
			TrailingEnabled: true,
			TrailingPct:     0.03,
		},
		Leverage: risk.LeveragePolicy{Fixed: 2, MinLeverage: 1, MaxLeverage: 5},
	},
		strategy.Build("", strategy.Params{}),
		risk.NewSizer(0, 0, 8, nil),
		acct,
		position.NewBook(),
		feed,
		execution.NewExecutor(log, false),
		trades,
	)

	eng.Run(ctx)

	snap := acct.Snapshot()
	fmt.Printf("balance: %.2f  realized pnl: %.2f\n", snap.Balance, snap.RealizedPnL)

	recent, err := trades.Recent(context.Background(), 10)
	if err != nil {
		log.Fatal().Err(err).Msg("read journal")
	}
	for _, r := range recent {
		fmt.Printf("%s %-8s %-4s px=%.2f qty=%.6f status=%s signal=%s pnl=%.4f\n",
			r.Ts.Format(time.RFC3339), r.Symbol, r.Side, r.Price, r.Size, r.Status, r.SignalType, r.RealizedPnL)
	}
}
