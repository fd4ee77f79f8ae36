// Package webhook accepts externally generated trade signals over HTTP
// and injects them into the engine as intents. Injected intents skip
// the strategies but still pass through sizing and the journal.
package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	sig "tradebot-go/internal/signal"
)

// Injector is the engine surface the ingress needs.
type Injector interface {
	Inject(intent sig.Intent) error
}

// Payload is the external signal shape.
type Payload struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	RiskPct    float64 `json:"risk_pct"`
	SignalType string  `json:"signal_type"`
}

// Server is the webhook HTTP ingress.
type Server struct {
	log      zerolog.Logger
	injector Injector
	srv      *http.Server
}

// NewServer builds the ingress listening on addr.
func NewServer(addr string, injector Injector, log zerolog.Logger) *Server {
	s := &Server{log: log, injector: injector}
	mux := http.NewServeMux()
	mux.HandleFunc("/signal", s.handleSignal)
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start serves in a goroutine and shuts down cleanly when ctx ends.
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("webhook ingress up")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("webhook server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("webhook shutdown failed")
		}
	}()
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var p Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if p.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	side := sig.Side(p.Side)
	if side != sig.Buy && side != sig.Sell {
		http.Error(w, "side must be buy or sell", http.StatusBadRequest)
		return
	}
	signalType := p.SignalType
	if signalType == "" {
		signalType = "webhook"
	}

	intent := sig.Intent{Symbol: p.Symbol, Side: side, RiskPct: p.RiskPct, SignalType: signalType}
	if err := s.injector.Inject(intent); err != nil {
		s.log.Warn().Err(err).Str("sym", p.Symbol).Msg("webhook intent dropped")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	s.log.Info().Str("sym", p.Symbol).Str("side", p.Side).Msg("webhook intent queued")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
}
