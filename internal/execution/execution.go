// Package execution handles order submission toward the venue.
package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"tradebot-go/internal/metrics"
	sig "tradebot-go/internal/signal"
)

// ErrRejected is returned when the venue declines an order. The caller
// must not retry within the same tick and must not mutate position or
// account state.
var ErrRejected = errors.New("order rejected")

// Statuses recorded against journal rows and metrics.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusBlocked  = "blocked"
)

// Order is a market order placement request.
type Order struct {
	Symbol string
	Side   sig.Side
	Qty    float64
	Price  float64 // reference price for logging; execution is market
}

// Result reports the venue's answer.
type Result struct {
	Accepted bool
	OrderID  string
	Status   string
}

// Submitter is the venue interface the engine depends on. A submission
// is a blocking call; each symbol loop suspends independently while its
// own order is in flight.
type Submitter interface {
	Submit(ctx context.Context, order Order) (Result, error)
}

// Executor is the paper submitter: it validates, rate-limits, honors
// the kill switch, and logs the order instead of routing it to a venue.
type Executor struct {
	log        zerolog.Logger
	limiter    *rate.Limiter
	killSwitch atomic.Bool
	mu         sync.Mutex
	seq        uint64
}

// NewExecutor builds the paper executor. The limiter guards the venue
// path against bursts across all symbol loops.
func NewExecutor(log zerolog.Logger, killSwitch bool) *Executor {
	e := &Executor{
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
	e.killSwitch.Store(killSwitch)
	return e
}

// SetKillSwitch engages or releases the submission block.
func (e *Executor) SetKillSwitch(on bool) { e.killSwitch.Store(on) }

// Submit places a market order. With the kill switch engaged it
// short-circuits to a blocked result without touching the venue path.
func (e *Executor) Submit(ctx context.Context, order Order) (Result, error) {
	if order.Symbol == "" || order.Qty <= 0 {
		return Result{Status: StatusRejected}, fmt.Errorf("%w: invalid order %+v", ErrRejected, order)
	}
	if e.killSwitch.Load() {
		metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side), StatusBlocked).Inc()
		e.log.Warn().Str("sym", order.Symbol).Str("side", string(order.Side)).Msg("kill switch engaged, order blocked")
		return Result{Status: StatusBlocked}, nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return Result{Status: StatusRejected}, err
	}

	e.mu.Lock()
	e.seq++
	id := fmt.Sprintf("paper-%d", e.seq)
	e.mu.Unlock()

	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side), StatusAccepted).Inc()
	e.log.Info().
		Str("sym", order.Symbol).
		Str("side", string(order.Side)).
		Float64("qty", order.Qty).
		Float64("px", order.Price).
		Str("order_id", id).
		Msg("submit market order")
	return Result{Accepted: true, OrderID: id, Status: StatusAccepted}, nil
}
