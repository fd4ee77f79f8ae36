// Package position tracks open exposure per symbol and decides, tick by
// tick, whether an open position must close.
package position

import (
	"sync"
	"time"

	sig "tradebot-go/internal/signal"
)

// Position is one open exposure in one symbol. Entry price, size, risk
// fraction, and leverage are fixed at open; only HighWater moves, and
// only in the position's favorable direction.
type Position struct {
	Symbol     string
	Side       sig.Side
	EntryPrice float64
	Size       float64
	RiskPct    float64
	Leverage   float64
	Allocation float64
	HighWater  float64
	OpenedAt   time.Time
}

// UnrealizedPct is the signed price move relative to entry, positive
// when the position is in profit.
func (p *Position) UnrealizedPct(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	if p.Side == sig.Buy {
		return (price - p.EntryPrice) / p.EntryPrice
	}
	return (p.EntryPrice - price) / p.EntryPrice
}

// RealizedPnL is the leveraged quote-currency result of closing at
// price: allocation × price move × leverage.
func (p *Position) RealizedPnL(price float64) float64 {
	return p.Allocation * p.UnrealizedPct(price) * p.Leverage
}

// Book holds at most one open position per symbol. Guarded for the
// webhook path, which can touch a symbol from outside its loop.
type Book struct {
	mu   sync.Mutex
	open map[string]*Position
}

// NewBook creates an empty position book.
func NewBook() *Book {
	return &Book{open: make(map[string]*Position)}
}

// Open records a new position. Returns false when the symbol already has
// one; entries are suppressed while a position is open.
func (b *Book) Open(p *Position) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.open[p.Symbol]; exists {
		return false
	}
	if p.HighWater == 0 {
		p.HighWater = p.EntryPrice
	}
	b.open[p.Symbol] = p
	return true
}

// Get returns the open position for symbol, or nil.
func (b *Book) Get(symbol string) *Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open[symbol]
}

// Close removes the position for symbol, reporting whether one existed.
// A symbol already absent is a no-op, so re-running exit handling on a
// closed position cannot double-settle.
func (b *Book) Close(symbol string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.open[symbol]; !exists {
		return false
	}
	delete(b.open, symbol)
	return true
}

// Len reports the number of open positions.
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.open)
}

// Symbols returns the symbols with open positions.
func (b *Book) Symbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.open))
	for sym := range b.open {
		out = append(out, sym)
	}
	return out
}
