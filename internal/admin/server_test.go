package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dark-phoenix/internal/clock"
	"dark-phoenix/internal/deterrence"
	"dark-phoenix/internal/firesuppression"
	"dark-phoenix/internal/guardian"
	"dark-phoenix/internal/sim"
	"dark-phoenix/internal/state"
	"dark-phoenix/internal/threat"
)

func newTestServer(t *testing.T, allowDeescalation bool) (*Server, *guardian.Engine) {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	act := sim.NewActuators()
	envCfg := sim.DefaultEnvironmentConfig()
	envCfg.Noise = 0
	env := sim.NewEnvironment(envCfg)
	cfg := guardian.DefaultConfig()
	cfg.AllowDeescalation = allowDeescalation
	e := guardian.New(cfg, guardian.Deps{
		Detector:   sim.NewDetector(clk, nil),
		Deterrence: deterrence.NewController(deterrence.DefaultConfig(), act.Siren(), act.Strobe(), act.Voice(), clk),
		Fire:       firesuppression.NewController(firesuppression.DefaultConfig(), env, env, act.Nozzle(), clk, nil),
		Clock:      clk,
	})
	e.Ignite(t.Context())
	return NewServer(e), e
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestHandleStatus(t *testing.T) {
	s, e := newTestServer(t, false)
	w := do(t, s, http.MethodGet, "/status")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %v", w.Code)
	}
	var st guardian.Status
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.ID != e.ID() || st.ThreatLevel != threat.Green {
		t.Errorf("unexpected status %+v", st)
	}

	w = do(t, s, http.MethodGet, "/status?format=text")
	if !strings.Contains(w.Body.String(), "Status: GREEN") {
		t.Errorf("expected text report, got %q", w.Body.String())
	}
}

func TestHandleEvents(t *testing.T) {
	s, _ := newTestServer(t, false)
	w := do(t, s, http.MethodGet, "/events")
	var evs []state.MissionEvent
	if err := json.NewDecoder(w.Body).Decode(&evs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(evs) != 1 || evs[0].Type != state.CeremonialActivation {
		t.Fatalf("expected the awakening event, got %+v", evs)
	}

	do(t, s, http.MethodPost, "/emergency-landing")
	w = do(t, s, http.MethodGet, "/events?limit=1")
	evs = nil
	json.NewDecoder(w.Body).Decode(&evs)
	if len(evs) != 1 || evs[0].Type != state.SystemMalfunction {
		t.Errorf("expected only the landing event, got %+v", evs)
	}

	if w := do(t, s, http.MethodGet, "/events?limit=x"); w.Code != http.StatusBadRequest {
		t.Errorf("expected bad request, got %v", w.Code)
	}
}

func TestHandleEmergencyLanding(t *testing.T) {
	s, e := newTestServer(t, false)
	if w := do(t, s, http.MethodPost, "/emergency-landing"); w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %v", w.Code)
	}
	if !e.Landed() {
		t.Fatalf("expected unit to have landed")
	}
	if w := do(t, s, http.MethodPost, "/emergency-landing"); w.Code != http.StatusConflict {
		t.Errorf("expected conflict on second landing, got %v", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/emergency-landing"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected method not allowed, got %v", w.Code)
	}
}

func TestHandleManualFire(t *testing.T) {
	s, e := newTestServer(t, false)
	if w := do(t, s, http.MethodPost, "/fire/manual"); w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %v: %s", w.Code, w.Body.String())
	}
	st := e.Status()
	if st.Fire == nil || !st.Fire.DischargeActive {
		t.Errorf("expected discharge, got %+v", st.Fire)
	}
}

func TestHandleDeescalate(t *testing.T) {
	s, _ := newTestServer(t, false)
	if w := do(t, s, http.MethodPost, "/deescalate?level=purple"); w.Code != http.StatusBadRequest {
		t.Errorf("expected bad request, got %v", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/deescalate?level=green"); w.Code != http.StatusForbidden {
		t.Errorf("expected forbidden, got %v", w.Code)
	}

	s, _ = newTestServer(t, true)
	// already at green, nothing to lower
	if w := do(t, s, http.MethodPost, "/deescalate?level=green"); w.Code != http.StatusForbidden {
		t.Errorf("expected forbidden, got %v", w.Code)
	}
}

func TestHandleSelfTest(t *testing.T) {
	s, _ := newTestServer(t, false)
	w := do(t, s, http.MethodPost, "/self-test")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %v: %s", w.Code, w.Body.String())
	}
}

func TestHandleSensitivity(t *testing.T) {
	s, e := newTestServer(t, false)
	w := do(t, s, http.MethodPost, "/sensitivity?value=0.4")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %v", w.Code)
	}
	if got := e.Status().Sensitivity; got != 0.4 {
		t.Errorf("expected sensitivity 0.4, got %v", got)
	}
	if w := do(t, s, http.MethodPost, "/sensitivity?value=high"); w.Code != http.StatusBadRequest {
		t.Errorf("expected bad request, got %v", w.Code)
	}
}
