package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dark-phoenix/internal/deterrence"
	"dark-phoenix/internal/threat"
)

const schemaPath = "../../schemas/phoenix.cue"

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "phoenix.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load("../../config/phoenix.yaml", schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Unit.Name != "Dark Phoenix Alpha" || !cfg.Unit.AllowDeescalation {
		t.Errorf("unexpected unit: %+v", cfg.Unit)
	}
	if cfg.Scheduler.TickInterval.Std() != 100*time.Millisecond {
		t.Errorf("unexpected tick interval %v", cfg.Scheduler.TickInterval.Std())
	}
	g := cfg.GuardianConfig()
	if g.StatusEvery != 10 || g.ConfidenceThreshold != 0.6 || len(g.EnabledTypes) != 6 {
		t.Errorf("unexpected guardian config: %+v", g)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTemp(t, `
unit:
  name: Ember
fire_suppression:
  cooldown: 5s
`)
	cfg, err := Load(path, schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Unit.ClusterID != "phoenix-01" {
		t.Errorf("expected default cluster id, got %q", cfg.Unit.ClusterID)
	}
	fc := cfg.FireConfig()
	if fc.Cooldown != 5*time.Second {
		t.Errorf("expected cooldown 5s, got %v", fc.Cooldown)
	}
	if fc.MaxDischarge != 10*time.Second || fc.MinPressure != 100 || !fc.AllowManualOverride {
		t.Errorf("unexpected fire defaults: %+v", fc)
	}
	if fc.HistorySize != 100 {
		t.Errorf("expected fire history 100, got %d", fc.HistorySize)
	}
	g := cfg.GuardianConfig()
	if g.Name != "Ember" || g.TickInterval != 100*time.Millisecond || g.LogCapacity != 100 || g.HistorySize != 1000 {
		t.Errorf("unexpected guardian defaults: %+v", g)
	}
	if g.AllowDeescalation {
		t.Errorf("de-escalation must default to off")
	}
}

func TestManualOverrideCanBeDisabled(t *testing.T) {
	cfg, err := Parse([]byte("fire_suppression:\n  allow_manual_override: false\n"))
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	if cfg.FireConfig().AllowManualOverride {
		t.Errorf("expected manual override disabled")
	}
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	path := writeTemp(t, `
health:
  battery_drain: 0
deterrence:
  max_siren_volume: 0
fire_suppression:
  cooldown: 0s
  min_pressure: 0
detection:
  confidence_threshold: 0
`)
	cfg, err := Load(path, schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	g := cfg.GuardianConfig()
	if g.BatteryDrain != 0 || g.ConfidenceThreshold != 0 {
		t.Errorf("expected zero drain and threshold, got %v and %v", g.BatteryDrain, g.ConfidenceThreshold)
	}
	fc := cfg.FireConfig()
	if fc.Cooldown != 0 || fc.MinPressure != 0 {
		t.Errorf("expected zero cooldown and pressure, got %v and %v", fc.Cooldown, fc.MinPressure)
	}
	dc, err := cfg.DeterrenceConfig()
	if err != nil {
		t.Fatalf("DeterrenceConfig() returned error: %v", err)
	}
	if dc.MaxSirenVolume != 0 {
		t.Errorf("expected zero siren volume, got %d", dc.MaxSirenVolume)
	}
	if g.TickInterval != 100*time.Millisecond {
		t.Errorf("unset tick interval should default, got %v", g.TickInterval)
	}
}

func TestParseRejectsNonPositiveScheduling(t *testing.T) {
	cases := map[string]string{
		"tick":        "scheduler:\n  tick_interval: 0s\n",
		"timeout":     "scheduler:\n  detection_timeout: 0s\n",
		"status":      "scheduler:\n  status_every: 0\n",
		"mission log": "history:\n  mission_log: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestSchemaRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"bad duration":  "scheduler:\n  tick_interval: soon\n",
		"unknown field": "unit:\n  callsign: x\n",
		"bad fraction":  "detection:\n  sensitivity: 1.5\n",
		"bad type":      "detection:\n  enabled_types: [ghost]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeTemp(t, body), schemaPath); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestParseRejectsUnknownNames(t *testing.T) {
	if _, err := Parse([]byte("deterrence:\n  strobe_frequencies:\n    disco: 2\n")); err == nil {
		t.Errorf("expected unknown pattern error")
	}
	if _, err := Parse([]byte("detection:\n  enabled_types: [ghost]\n")); err == nil {
		t.Errorf("expected unknown type error")
	}
	if _, err := Parse([]byte("scheduler:\n  tick_interval: soon\n")); err == nil {
		t.Errorf("expected duration error")
	}
}

func TestDeterrenceConfigOverlay(t *testing.T) {
	cfg, err := Parse([]byte(`
deterrence:
  strobe_frequencies:
    emergency: 12
  messages:
    orange:
      weapon: Put it down.
  ceremonies:
    retreat: Stand down.
`))
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	dc, err := cfg.DeterrenceConfig()
	if err != nil {
		t.Fatalf("DeterrenceConfig() returned error: %v", err)
	}
	if dc.StrobeFrequencies[deterrence.Emergency] != 12 {
		t.Errorf("expected emergency 12 Hz, got %v", dc.StrobeFrequencies[deterrence.Emergency])
	}
	if dc.StrobeFrequencies[deterrence.Phoenix] != 3 {
		t.Errorf("expected phoenix default 3 Hz, got %v", dc.StrobeFrequencies[deterrence.Phoenix])
	}
	if got := dc.Catalog.Message(threat.Orange, "weapon"); got != "Put it down." {
		t.Errorf("unexpected weapon message %q", got)
	}
	def := deterrence.DefaultCatalog()
	if got := dc.Catalog.Message(threat.Orange, ""); got != def.Message(threat.Orange, "") {
		t.Errorf("default orange message lost: %q", got)
	}
	if got := dc.Catalog.Ceremony(deterrence.CeremonyRetreat); got != "Stand down." {
		t.Errorf("unexpected retreat ceremony %q", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CLUSTER_ID", "night-watch")
	t.Setenv("PHOENIX_NAME", "Cinder")
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("GREPTIMEDB_ENDPOINT", "greptime.local")

	e, err := ParseEnv()
	if err != nil {
		t.Fatalf("ParseEnv() returned error: %v", err)
	}
	if e.GreptimePort != 4001 || e.GreptimeDatabase != "public" || e.GreptimeEndpoint != "greptime.local" {
		t.Errorf("unexpected greptime env: %+v", e)
	}
	cfg := Default()
	cfg.ApplyEnv(e)
	g := cfg.GuardianConfig()
	if g.ClusterID != "night-watch" || g.Name != "Cinder" || g.TickInterval != 250*time.Millisecond {
		t.Errorf("env not applied: %+v", g)
	}
}

func TestEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("TICK_INTERVAL", "often")
	if _, err := ParseEnv(); err == nil {
		t.Errorf("expected parse error")
	}
}
