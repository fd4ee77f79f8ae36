package signal

// DefaultWindowCapacity bounds the per-symbol price history kept for
// indicator and momentum computation.
const DefaultWindowCapacity = 100

// Window is a bounded FIFO sequence of recent trade prices for one
// symbol. The oldest price is evicted once capacity is exceeded. Not
// safe for concurrent use; each symbol loop owns its own window.
type Window struct {
	capacity int
	prices   []float64
}

// NewWindow creates an empty window, falling back to the default
// capacity for non-positive values.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	return &Window{capacity: capacity, prices: make([]float64, 0, capacity)}
}

// Push appends a price, evicting the oldest entry when full.
func (w *Window) Push(price float64) {
	if len(w.prices) == w.capacity {
		copy(w.prices, w.prices[1:])
		w.prices = w.prices[:w.capacity-1]
	}
	w.prices = append(w.prices, price)
}

// Len reports the number of stored prices.
func (w *Window) Len() int { return len(w.prices) }

// Prices returns the stored prices oldest-first. The slice aliases the
// window's storage and must not be retained across a Push.
func (w *Window) Prices() []float64 { return w.prices }

// Last returns up to n most recent prices, oldest-first.
func (w *Window) Last(n int) []float64 {
	if n <= 0 || len(w.prices) == 0 {
		return nil
	}
	if n > len(w.prices) {
		n = len(w.prices)
	}
	return w.prices[len(w.prices)-n:]
}
