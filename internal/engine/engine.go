// Package engine runs one evaluation loop per traded symbol: exits are
// evaluated before entries, every tick, on a fixed interval.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tradebot-go/internal/account"
	"tradebot-go/internal/exchange"
	"tradebot-go/internal/execution"
	"tradebot-go/internal/journal"
	"tradebot-go/internal/metrics"
	"tradebot-go/internal/position"
	"tradebot-go/internal/risk"
	sig "tradebot-go/internal/signal"
	"tradebot-go/internal/strategy"
)

// PriceSource is the per-tick price fetch the engine polls.
type PriceSource interface {
	LatestPrice(symbol string) (float64, error)
}

// TradeLog is the append-only sink fed by every submission attempt.
type TradeLog interface {
	Append(ctx context.Context, r journal.Record) error
}

// Options bundles the engine's tuning knobs.
type Options struct {
	Symbols        []string
	TickInterval   time.Duration
	ErrorBackoff   time.Duration
	WindowCapacity int
	ExitRules      position.ExitRules
	Leverage       risk.LeveragePolicy
}

// Engine owns the symbol loops. Each loop exclusively owns its price
// window; the account and position book are the only shared state and
// carry their own locking.
type Engine struct {
	log       zerolog.Logger
	opts      Options
	strat     strategy.Strategy
	sizer     *risk.Sizer
	account   *account.Account
	book      *position.Book
	prices    PriceSource
	submitter execution.Submitter
	trades    TradeLog
	injected  map[string]chan sig.Intent
}

// New wires an engine from its collaborators.
func New(
	log zerolog.Logger,
	opts Options,
	strat strategy.Strategy,
	sizer *risk.Sizer,
	acct *account.Account,
	book *position.Book,
	prices PriceSource,
	submitter execution.Submitter,
	trades TradeLog,
) *Engine {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = 2 * time.Second
	}
	injected := make(map[string]chan sig.Intent, len(opts.Symbols))
	for _, sym := range opts.Symbols {
		injected[sym] = make(chan sig.Intent, 8)
	}
	return &Engine{
		log:       log,
		opts:      opts,
		strat:     strat,
		sizer:     sizer,
		account:   acct,
		book:      book,
		prices:    prices,
		submitter: submitter,
		trades:    trades,
		injected:  injected,
	}
}

// Inject queues an externally supplied intent (the webhook path) for
// the symbol's next tick. The intent bypasses the strategies but still
// passes through sizing, the kill switch, and the journal.
func (e *Engine) Inject(intent sig.Intent) error {
	ch, ok := e.injected[intent.Symbol]
	if !ok {
		return fmt.Errorf("unknown symbol %q", intent.Symbol)
	}
	if intent.Side != sig.Buy && intent.Side != sig.Sell {
		return fmt.Errorf("invalid side %q", intent.Side)
	}
	select {
	case ch <- intent:
		return nil
	default:
		return fmt.Errorf("intent queue full for %s", intent.Symbol)
	}
}

// Run starts one loop per symbol and blocks until the context is
// canceled and every loop has drained.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, sym := range e.opts.Symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			e.runSymbol(ctx, symbol)
		}(sym)
	}
	wg.Wait()
}

func (e *Engine) runSymbol(ctx context.Context, symbol string) {
	window := sig.NewWindow(e.opts.WindowCapacity)
	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()

	log := e.log.With().Str("sym", symbol).Logger()
	log.Info().Msg("symbol loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("symbol loop stopped")
			return
		case <-ticker.C:
			if err := e.safeStep(ctx, symbol, window); err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Error().Err(err).Msg("tick failed, backing off")
				metrics.TickErrors.WithLabelValues(symbol, "unexpected").Inc()
				select {
				case <-time.After(e.opts.ErrorBackoff):
				case <-ctx.Done():
				}
			}
		}
	}
}

// safeStep contains a tick's failure to this symbol's loop: a panic in
// any collaborator surfaces as an error instead of crashing the other
// loops.
func (e *Engine) safeStep(ctx context.Context, symbol string, window *sig.Window) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
		}
	}()
	return e.step(ctx, symbol, window)
}

func (e *Engine) step(ctx context.Context, symbol string, window *sig.Window) error {
	price, err := e.prices.LatestPrice(symbol)
	if err != nil {
		var mde *exchange.MarketDataError
		if errors.As(err, &mde) {
			metrics.TickErrors.WithLabelValues(symbol, "market_data").Inc()
			e.log.Debug().Str("sym", symbol).Err(err).Msg("skipping tick")
			return nil
		}
		return err
	}

	window.Push(price)
	metrics.TicksTotal.WithLabelValues(symbol).Inc()
	metrics.AccountBalance.Set(e.account.Balance())

	if pos := e.book.Get(symbol); pos != nil {
		reason, exited := position.Evaluate(pos, price, e.opts.ExitRules)
		if exited {
			e.closePosition(ctx, pos, price, reason)
		}
		// An open position suppresses new entries whether or not it
		// just closed: the exit already consumed this tick.
		return nil
	}

	select {
	case intent := <-e.injected[symbol]:
		intent.Price = price
		e.enter(ctx, symbol, window, intent)
		return nil
	default:
	}

	entry := e.strat.Evaluate(window)
	if entry == nil {
		return nil
	}
	e.enter(ctx, symbol, window, sig.Intent{
		Symbol:     symbol,
		Side:       entry.Side,
		RiskPct:    entry.RiskPct,
		SignalType: entry.SignalType,
		Price:      price,
	})
	return nil
}

func (e *Engine) enter(ctx context.Context, symbol string, window *sig.Window, intent sig.Intent) {
	balance := e.account.Balance()
	leverage := e.opts.Leverage.Select(balance, window.Prices())

	sizing, err := e.sizer.Size(symbol, balance, intent.RiskPct, leverage, intent.Price)
	if err != nil {
		metrics.TickErrors.WithLabelValues(symbol, "sizing").Inc()
		e.log.Warn().Str("sym", symbol).Err(err).Msg("entry skipped")
		return
	}

	if err := e.account.Reserve(sizing.Allocation); err != nil {
		metrics.TickErrors.WithLabelValues(symbol, "sizing").Inc()
		e.log.Warn().Str("sym", symbol).Err(err).Msg("entry skipped")
		return
	}

	order := execution.Order{Symbol: symbol, Side: intent.Side, Qty: sizing.Size, Price: intent.Price}
	result, err := e.submitter.Submit(ctx, order)
	record := journal.Record{
		Ts:         time.Now(),
		Symbol:     symbol,
		Side:       string(intent.Side),
		Price:      intent.Price,
		Size:       sizing.Size,
		Allocation: sizing.Allocation,
		RiskPct:    sizing.RiskPct,
		Leverage:   sizing.Leverage,
		SignalType: intent.SignalType,
	}

	switch {
	case err != nil:
		e.account.Release(sizing.Allocation)
		record.Status = execution.StatusRejected
		record.Notes = err.Error()
		e.log.Warn().Str("sym", symbol).Err(err).Msg("entry order rejected")
	case result.Status == execution.StatusBlocked:
		e.account.Release(sizing.Allocation)
		record.Status = execution.StatusBlocked
		record.Notes = "kill switch engaged"
	case result.Accepted:
		opened := e.book.Open(&position.Position{
			Symbol:     symbol,
			Side:       intent.Side,
			EntryPrice: intent.Price,
			Size:       sizing.Size,
			RiskPct:    sizing.RiskPct,
			Leverage:   sizing.Leverage,
			Allocation: sizing.Allocation,
			HighWater:  intent.Price,
			OpenedAt:   time.Now(),
		})
		if !opened {
			// Lost the race to a concurrent injection; undo the debit.
			e.account.Release(sizing.Allocation)
			record.Status = execution.StatusRejected
			record.Notes = "position already open"
		} else {
			record.Status = execution.StatusAccepted
			record.Notes = result.OrderID
			metrics.OpenPositions.Set(float64(e.book.Len()))
		}
	default:
		e.account.Release(sizing.Allocation)
		record.Status = execution.StatusRejected
	}

	record.BalanceUSD = e.account.Balance()
	e.appendRecord(ctx, record)
}

// closePosition submits the opposite-side order for the full size. The
// book and account mutate only after the venue accepts: a rejected exit
// leaves the position open for the next tick, and shutdown mid-flight
// leaves either the old state or the fully settled one.
func (e *Engine) closePosition(ctx context.Context, pos *position.Position, price float64, reason position.ExitReason) {
	order := execution.Order{Symbol: pos.Symbol, Side: pos.Side.Opposite(), Qty: pos.Size, Price: price}
	result, err := e.submitter.Submit(ctx, order)
	record := journal.Record{
		Ts:         time.Now(),
		Symbol:     pos.Symbol,
		Side:       string(order.Side),
		Price:      price,
		Size:       pos.Size,
		Allocation: pos.Allocation,
		RiskPct:    pos.RiskPct,
		Leverage:   pos.Leverage,
		SignalType: string(reason),
	}

	switch {
	case err != nil:
		record.Status = execution.StatusRejected
		record.Notes = err.Error()
		e.log.Warn().Str("sym", pos.Symbol).Err(err).Msg("exit order rejected, position stays open")
	case result.Status == execution.StatusBlocked:
		record.Status = execution.StatusBlocked
		record.Notes = "kill switch engaged"
	case result.Accepted:
		pnl := pos.RealizedPnL(price)
		e.account.ApplyRealized(pos.Allocation, pnl)
		e.book.Close(pos.Symbol)
		record.Status = execution.StatusAccepted
		record.Notes = result.OrderID
		record.RealizedPnL = pnl
		metrics.ExitsTotal.WithLabelValues(pos.Symbol, string(reason)).Inc()
		metrics.OpenPositions.Set(float64(e.book.Len()))
		e.log.Info().
			Str("sym", pos.Symbol).
			Str("reason", string(reason)).
			Float64("pnl", pnl).
			Msg("position closed")
	default:
		record.Status = execution.StatusRejected
	}

	record.BalanceUSD = e.account.Balance()
	e.appendRecord(ctx, record)
}

func (e *Engine) appendRecord(ctx context.Context, r journal.Record) {
	if e.trades == nil {
		return
	}
	if err := e.trades.Append(ctx, r); err != nil {
		e.log.Error().Err(err).Msg("journal append failed")
	}
}
