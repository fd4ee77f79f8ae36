// Binary bot runs the tick-driven trading engine against the configured
// market data provider with the paper executor.
package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tradebot-go/internal/account"
	"tradebot-go/internal/config"
	"tradebot-go/internal/engine"
	"tradebot-go/internal/exchange"
	"tradebot-go/internal/execution"
	"tradebot-go/internal/journal"
	"tradebot-go/internal/metrics"
	"tradebot-go/internal/position"
	"tradebot-go/internal/risk"
	sig "tradebot-go/internal/signal"
	"tradebot-go/internal/strategy"
	"tradebot-go/internal/util"
	"tradebot-go/internal/webhook"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfgPath := os.Getenv("TRADEBOT_CONFIG")
	if cfgPath == "" {
		cfgPath = "internal/config/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot := util.NewLogger("info")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	feed := exchange.NewFeed(cfg.Feed.Provider, cfg.Feed.Symbols, log)
	ticks := make(chan sig.Tick, 1024)
	go func() {
		if err := feed.Run(ctx, ticks); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()
	// The engine reads the latest-price view; the tick stream itself
	// only needs draining to keep the feed moving.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
			}
		}
	}()

	trades, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open journal")
	}
	defer trades.Close()

	killSwitch := cfg.Engine.KillSwitch
	if os.Getenv("TRADEBOT_KILL_SWITCH") == "1" {
		killSwitch = true
	}

	acct := account.New(cfg.Engine.StartingBalance)
	book := position.NewBook()
	exec := execution.NewExecutor(log, killSwitch)
	strat := strategy.Build(cfg.Strategy.Mode, strategy.Params{
		DropThreshold:    cfg.Strategy.Params.DropThreshold,
		RiseThreshold:    cfg.Strategy.Params.RiseThreshold,
		HFMTRiskPct:      cfg.Strategy.Params.HFMTRiskPct,
		RSIPeriod:        cfg.Strategy.Params.RSIPeriod,
		VWAPPeriod:       cfg.Strategy.Params.VWAPPeriod,
		BaseRiskPct:      cfg.Strategy.Params.BaseRiskPct,
		RSIBoostPct:      cfg.Strategy.Params.RSIBoostPct,
		DeviationBoost:   cfg.Strategy.Params.DeviationBoost,
		DeviationTrigger: cfg.Strategy.Params.DeviationTrigger,
		MinRiskPct:       cfg.Risk.MinRiskPct,
		MaxRiskPct:       cfg.Risk.MaxRiskPct,
	})
	sizer := risk.NewSizer(cfg.Risk.MinRiskPct, cfg.Risk.MaxRiskPct, cfg.Risk.Precision, cfg.Risk.PrecisionOverrides)

	eng := engine.New(log, engine.Options{
		Symbols:        feed.Symbols(),
		TickInterval:   cfg.Engine.TickInterval(),
		ErrorBackoff:   cfg.Engine.ErrorBackoff(),
		WindowCapacity: cfg.Feed.WindowCapacity,
		ExitRules: position.ExitRules{
			StopLossPct:     cfg.Exits.StopLossPct,
			TakeProfitPct:   cfg.Exits.TakeProfitPct,
			TrailingEnabled: cfg.Exits.TrailingEnabled,
			TrailingPct:     cfg.Exits.TrailingPct,
		},
		Leverage: risk.LeveragePolicy{
			Dynamic:          cfg.Risk.Leverage.Dynamic,
			Fixed:            cfg.Risk.Leverage.Fixed,
			MinLeverage:      cfg.Risk.Leverage.MinLeverage,
			MaxLeverage:      cfg.Risk.Leverage.MaxLeverage,
			VolatilityPeriod: cfg.Risk.Leverage.VolatilityPeriod,
			VolThreshold:     cfg.Risk.Leverage.VolThreshold,
			VolScale:         cfg.Risk.Leverage.VolScale,
		},
	}, strat, sizer, acct, book, feed, exec, trades)

	if cfg.App.WebhookAddr != "" {
		webhook.NewServer(cfg.App.WebhookAddr, eng, log).Start(ctx)
	}

	log.Info().
		Strs("symbols", feed.Symbols()).
		Str("strategy", strat.Name()).
		Float64("balance", cfg.Engine.StartingBalance).
		Msg("engine started")

	eng.Run(ctx)

	snap := acct.Snapshot()
	log.Info().
		Float64("balance", snap.Balance).
		Float64("realized_pnl", snap.RealizedPnL).
		Msg("engine stopped")
}
