// Package account tracks the shared quote-currency balance read by
// sizing and written back on accepted orders.
package account

import (
	"errors"
	"sync"
)

const epsilon = 1e-9

// ErrInsufficientBalance is returned when a reservation exceeds the
// available balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Account is the single cross-symbol shared resource: a USD balance
// guarded by a mutex so parallel symbol loops never observe a partial
// update. Balance moves optimistically on order acceptance, not on
// confirmed fills.
type Account struct {
	mu              sync.Mutex
	startingBalance float64
	balance         float64
	realizedPnL     float64
}

// Snapshot is a point-in-time copy of the account figures.
type Snapshot struct {
	Balance     float64
	RealizedPnL float64
}

// New creates an account holding the starting balance.
func New(startingBalance float64) *Account {
	return &Account{startingBalance: startingBalance, balance: startingBalance}
}

// StartingBalance returns the initial bankroll.
func (a *Account) StartingBalance() float64 { return a.startingBalance }

// Balance returns the currently available balance.
func (a *Account) Balance() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// Reserve debits an entry allocation the moment the order is accepted.
// The debit is atomic: either the full amount comes off or nothing does.
func (a *Account) Reserve(allocation float64) error {
	if allocation <= 0 {
		return errors.New("allocation must be positive")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if allocation > a.balance+epsilon {
		return ErrInsufficientBalance
	}
	a.balance -= allocation
	return nil
}

// Release returns a reservation after a rejected entry order.
func (a *Account) Release(allocation float64) {
	if allocation <= 0 {
		return
	}
	a.mu.Lock()
	a.balance += allocation
	a.mu.Unlock()
}

// ApplyRealized settles a closed position: the original allocation comes
// back plus the leveraged realized profit (or minus the loss).
func (a *Account) ApplyRealized(allocation, pnl float64) {
	a.mu.Lock()
	a.balance += allocation + pnl
	a.realizedPnL += pnl
	a.mu.Unlock()
}

// Snapshot returns a consistent copy of balance and realized P/L.
func (a *Account) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{Balance: a.balance, RealizedPnL: a.realizedPnL}
}
