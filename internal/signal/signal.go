// Package signal standardizes payloads shared between data ingestion,
// strategy, and execution layers.
package signal

import "time"

// Side enumerates the direction of an intent.
type Side string

const (
	// Buy opens or adds long exposure.
	Buy Side = "buy"
	// Sell opens short exposure or closes a long.
	Sell Side = "sell"
)

// Opposite returns the closing side for s.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Tick models the market data consumed by strategies, one price per
// symbol per interval.
type Tick struct {
	Symbol string
	Price  float64
	Ts     time.Time
}

// Intent expresses a sized or to-be-sized trade request. Produced by a
// strategy, an exit evaluation, or the webhook ingress; consumed
// immediately by the engine and never persisted beyond its journal row.
type Intent struct {
	Symbol     string
	Side       Side
	Size       float64
	RiskPct    float64
	SignalType string
	Price      float64
}
