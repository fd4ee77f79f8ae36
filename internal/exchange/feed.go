// Package exchange hosts market data connectors and the latest-price
// view the engine polls each tick.
package exchange

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tradebot-go/internal/signal"
)

const (
	// ProviderStub emits deterministic synthetic ticks (useful for
	// tests and offline work).
	ProviderStub = "stub"
	// ProviderBinance streams live trades from Binance public
	// websockets.
	ProviderBinance = "binance"
)

// MarketDataError reports a failed per-tick price fetch. The engine
// skips the tick and retries on the next interval.
type MarketDataError struct {
	Symbol string
	Reason string
}

func (e *MarketDataError) Error() string {
	return fmt.Sprintf("market data %s: %s", e.Symbol, e.Reason)
}

// Feed is a pluggable market data stream. Run pushes ticks onto a
// channel and mirrors the newest price per symbol into a view served by
// LatestPrice.
type Feed struct {
	provider   string
	symbols    []string
	log        zerolog.Logger
	mu         sync.RWMutex
	lastPrices map[string]float64
	stubStep   float64
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithStubStep overrides the deterministic per-tick price increment of
// the stub provider.
func WithStubStep(step float64) Option {
	return func(f *Feed) { f.stubStep = step }
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider string, symbols []string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider:   strings.ToLower(provider),
		log:        log,
		lastPrices: make(map[string]float64),
		stubStep:   0.1,
	}
	f.setSymbols(symbols)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Feed) setSymbols(symbols []string) {
	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		unique[sym] = struct{}{}
	}
	f.symbols = f.symbols[:0]
	for sym := range unique {
		f.symbols = append(f.symbols, sym)
	}
	sort.Strings(f.symbols)
}

// Symbols returns the tracked symbols.
func (f *Feed) Symbols() []string {
	out := make([]string, len(f.symbols))
	copy(out, f.symbols)
	return out
}

// LatestPrice returns the newest observed price for symbol. Before the
// first tick arrives (or after a feed outage wiped the view) it fails
// with a MarketDataError.
func (f *Feed) LatestPrice(symbol string) (float64, error) {
	f.mu.RLock()
	px, ok := f.lastPrices[symbol]
	f.mu.RUnlock()
	if !ok || px <= 0 {
		return 0, &MarketDataError{Symbol: symbol, Reason: "no price observed yet"}
	}
	return px, nil
}

// Observe records a price into the latest-price view. Exposed for the
// replay path and tests; Run calls it for every streamed tick.
func (f *Feed) Observe(symbol string, price float64) {
	if price <= 0 {
		return
	}
	f.mu.Lock()
	f.lastPrices[symbol] = price
	f.mu.Unlock()
}

// Run pushes ticks onto the provided channel until the context is
// canceled.
func (f *Feed) Run(ctx context.Context, out chan<- signal.Tick) error {
	switch f.provider {
	case ProviderBinance:
		return f.runBinance(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

func (f *Feed) runStub(ctx context.Context, out chan<- signal.Tick) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	px := 100.0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			px += f.stubStep
			for _, s := range f.symbols {
				tick := signal.Tick{Symbol: s, Price: px, Ts: ts}
				f.Observe(s, px)
				select {
				case out <- tick:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
