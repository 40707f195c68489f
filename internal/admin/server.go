// Package admin exposes the operator HTTP API of a protection unit.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"dark-phoenix/internal/firesuppression"
	"dark-phoenix/internal/guardian"
	"dark-phoenix/internal/logging"
	"dark-phoenix/internal/state"
	"dark-phoenix/internal/threat"
)

// Unit is the engine surface the API drives.
type Unit interface {
	Status() guardian.Status
	Events() []state.MissionEvent
	EmergencyLanding(ctx context.Context) error
	ManualFireSuppression(ctx context.Context) error
	Deescalate(ctx context.Context, level threat.Level, reason string) error
	SelfTest(ctx context.Context) error
	AdjustSensitivity(ctx context.Context, v float64) float64
}

type Server struct {
	unit Unit
	mux  *http.ServeMux
}

func NewServer(u Unit) *Server {
	s := &Server{unit: u, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /events", s.handleEvents)
	s.mux.HandleFunc("POST /emergency-landing", s.handleEmergencyLanding)
	s.mux.HandleFunc("POST /fire/manual", s.handleManualFire)
	s.mux.HandleFunc("POST /deescalate", s.handleDeescalate)
	s.mux.HandleFunc("POST /self-test", s.handleSelfTest)
	s.mux.HandleFunc("POST /sensitivity", s.handleSensitivity)
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves on addr until ctx is done. It returns http.ErrServerClosed
// after a clean shutdown.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.FromContext(ctx).Warn("admin server shutdown", "err", err)
		}
	}()
	return srv.ListenAndServe()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.unit.Status()
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(st.Report() + "\n"))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	evs := s.unit.Events()
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n < len(evs) {
			evs = evs[len(evs)-n:]
		}
	}
	writeJSON(w, http.StatusOK, evs)
}

func (s *Server) handleEmergencyLanding(w http.ResponseWriter, r *http.Request) {
	if err := s.unit.EmergencyLanding(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"landed": true})
}

func (s *Server) handleManualFire(w http.ResponseWriter, r *http.Request) {
	if err := s.unit.ManualFireSuppression(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"discharging": true})
}

func (s *Server) handleDeescalate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	level, err := threat.ParseLevel(q.Get("level"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.unit.Deescalate(r.Context(), level, q.Get("reason")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"threat_level": level})
}

func (s *Server) handleSelfTest(w http.ResponseWriter, r *http.Request) {
	if err := s.unit.SelfTest(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"passed": true})
}

func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	v, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sensitivity value")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sensitivity": s.unit.AdjustSensitivity(r.Context(), v)})
}

// fail maps engine errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, guardian.ErrLanded), errors.Is(err, firesuppression.ErrNotReady):
		code = http.StatusConflict
	case errors.Is(err, guardian.ErrDeescalationDenied), errors.Is(err, firesuppression.ErrOverrideDisabled):
		code = http.StatusForbidden
	}
	logging.FromContext(r.Context()).Warn("admin request failed", "path", r.URL.Path, "status", code, "err", err)
	writeError(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
