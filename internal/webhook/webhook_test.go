package webhook

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	sig "tradebot-go/internal/signal"
)

type fakeInjector struct {
	intents []sig.Intent
	err     error
}

func (f *fakeInjector) Inject(intent sig.Intent) error {
	if f.err != nil {
		return f.err
	}
	f.intents = append(f.intents, intent)
	return nil
}

func postSignal(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/signal", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSignalQueued(t *testing.T) {
	inj := &fakeInjector{}
	srv := NewServer(":0", inj, zerolog.Nop())
	rec := postSignal(t, srv, `{"symbol":"BTCUSDT","side":"buy","risk_pct":0.05,"signal_type":"external"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(inj.intents) != 1 {
		t.Fatalf("expected one injected intent")
	}
	got := inj.intents[0]
	if got.Symbol != "BTCUSDT" || got.Side != sig.Buy || got.RiskPct != 0.05 || got.SignalType != "external" {
		t.Fatalf("unexpected intent %+v", got)
	}
}

func TestSignalDefaultsType(t *testing.T) {
	inj := &fakeInjector{}
	srv := NewServer(":0", inj, zerolog.Nop())
	postSignal(t, srv, `{"symbol":"BTCUSDT","side":"sell","risk_pct":0.04}`)
	if inj.intents[0].SignalType != "webhook" {
		t.Fatalf("expected default signal type, got %q", inj.intents[0].SignalType)
	}
}

func TestSignalValidation(t *testing.T) {
	inj := &fakeInjector{}
	srv := NewServer(":0", inj, zerolog.Nop())

	if rec := postSignal(t, srv, `not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
	if rec := postSignal(t, srv, `{"side":"buy"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing symbol, got %d", rec.Code)
	}
	if rec := postSignal(t, srv, `{"symbol":"BTCUSDT","side":"hold"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad side, got %d", rec.Code)
	}
	if len(inj.intents) != 0 {
		t.Fatalf("invalid payloads must not inject")
	}
}

func TestSignalMethodNotAllowed(t *testing.T) {
	srv := NewServer(":0", &fakeInjector{}, zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/signal", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestSignalInjectFailure(t *testing.T) {
	inj := &fakeInjector{err: errors.New("unknown symbol")}
	srv := NewServer(":0", inj, zerolog.Nop())
	rec := postSignal(t, srv, `{"symbol":"DOGEUSDT","side":"buy"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
