package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dark-phoenix/internal/config"
	"dark-phoenix/internal/telemetry"
)

func withTerminal(t *testing.T, tty bool) {
	t.Helper()
	prev := isTerminal
	isTerminal = func() bool { return tty }
	t.Cleanup(func() { isTerminal = prev })
}

func TestNewWritersPrintOnly(t *testing.T) {
	withTerminal(t, false)
	ew, sw, cleanup, err := newWriters(t.Context(), config.Env{GreptimeEndpoint: "db"}, writerOptions{printOnly: true})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := ew.(*telemetry.JSONStdoutWriter); !ok {
		t.Fatalf("expected *telemetry.JSONStdoutWriter, got %T", ew)
	}
	if _, ok := sw.(*telemetry.JSONStdoutWriter); !ok {
		t.Fatalf("expected *telemetry.JSONStdoutWriter, got %T", sw)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	withTerminal(t, true)
	ew, _, cleanup, err := newWriters(t.Context(), config.Env{}, writerOptions{})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := ew.(*telemetry.ColorStdoutWriter); !ok {
		t.Fatalf("expected *telemetry.ColorStdoutWriter on a terminal, got %T", ew)
	}
}

func TestNewWritersTUIRequiresTerminal(t *testing.T) {
	withTerminal(t, false)
	ew, _, cleanup, err := newWriters(t.Context(), config.Env{}, writerOptions{tui: true})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := ew.(*telemetry.TUIWriter); ok {
		t.Fatalf("TUI must not start without a terminal")
	}
}

func TestNewWritersLogFile(t *testing.T) {
	withTerminal(t, false)
	dir := t.TempDir()
	path := filepath.Join(dir, "mission.log")
	ew, sw, cleanup, err := newWriters(t.Context(), config.Env{}, writerOptions{printOnly: true, logFile: path})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := ew.(*telemetry.MultiWriter); !ok {
		t.Fatalf("expected *telemetry.MultiWriter, got %T", ew)
	}
	row := telemetry.EventRow{EventID: "e1", EventType: "threat_detected", ThreatLevel: "YELLOW", Timestamp: time.Now()}
	if err := ew.WriteEvent(row); err != nil {
		t.Fatalf("write event: %v", err)
	}
	if err := sw.WriteStatus(telemetry.StatusRow{UnitID: "u1", ThreatLevel: "YELLOW"}); err != nil {
		t.Fatalf("write status: %v", err)
	}
	cleanup()

	for _, p := range []string{path, path + ".status"} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("expected %s: %v", p, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to contain data", p)
		}
	}
	last, err := telemetry.LastStatusFile(path + ".status")
	if err != nil || last.UnitID != "u1" {
		t.Fatalf("unexpected last status %+v, %v", last, err)
	}
}

func TestLoadScenario(t *testing.T) {
	sc, err := loadScenario("intruder")
	if err != nil || sc.Name != "Intruder" {
		t.Fatalf("expected built-in intruder, got %+v, %v", sc, err)
	}
	sc, err = loadScenario("../../internal/scenario/testdata/simple.yaml")
	if err != nil || sc.Name != "example" {
		t.Fatalf("expected scenario from file, got %+v, %v", sc, err)
	}
	if _, err := loadScenario("nope"); err == nil {
		t.Fatalf("expected error for unknown scenario")
	}
}

func TestAssembleWiresEngine(t *testing.T) {
	cfg := config.Default()
	unit, err := assemble(cfg, nil, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	st := unit.engine.Status()
	if st.Name != cfg.Unit.Name || st.Fire == nil || !st.Fire.Armed {
		t.Fatalf("unexpected status %+v", st)
	}
	if err := unit.engine.SelfTest(t.Context()); err != nil {
		t.Fatalf("self-test: %v", err)
	}
}
