package scenario

import (
	"math"
	"testing"
	"time"

	"dark-phoenix/internal/geo"
	"dark-phoenix/internal/threat"
)

func TestScenarioTransition(t *testing.T) {
	s := Scenario{
		Phases: []Phase{{
			Name:     "patrol",
			Triggers: []Trigger{{Event: EventTimeElapsed, Value: 10, Next: "attack"}},
		}, {
			Name: "attack",
		}},
	}

	if _, ok := s.NextPhase("patrol", Event{Type: EventTimeElapsed, Value: 9}); ok {
		t.Fatalf("expected no transition before 10s")
	}
	next, ok := s.NextPhase("patrol", Event{Type: EventTimeElapsed, Value: 10})
	if !ok || next != "attack" {
		t.Fatalf("expected transition to attack, got %s", next)
	}
	if _, ok := s.NextPhase("attack", Event{Type: EventTimeElapsed, Value: 100}); ok {
		t.Fatalf("final phase should not transition")
	}
}

func TestLoadScenario(t *testing.T) {
	sc, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if sc.Name != "example" {
		t.Fatalf("unexpected name %s", sc.Name)
	}
	if sc.Description != "basic test scenario" {
		t.Fatalf("unexpected description %s", sc.Description)
	}
	if len(sc.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(sc.Phases))
	}
	cue := sc.Phases[0].Threat
	if cue == nil || cue.Level != "yellow" || cue.DistanceM != 20 {
		t.Fatalf("unexpected threat cue %+v", cue)
	}
	if f := sc.Phases[1].Fire; f == nil || f.Temperature != 80 {
		t.Fatalf("unexpected fire cue %+v", f)
	}
}

func TestLoadRejectsInvalidScenario(t *testing.T) {
	if _, err := Load("testdata/bad.yaml"); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := Load("testdata/missing.yaml"); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]Scenario{
		"empty":      {},
		"duplicate":  {Phases: []Phase{{Name: "a"}, {Name: "a"}}},
		"confidence": {Phases: []Phase{{Name: "a", Threat: &ThreatCue{Level: "red", Confidence: 1.5}}}},
		"type":       {Phases: []Phase{{Name: "a", Threat: &ThreatCue{Level: "red", Confidence: 0.5, Types: []string{"ghost"}}}}},
		"target":     {Phases: []Phase{{Name: "a", Triggers: []Trigger{{Event: EventTimeElapsed, Next: "b"}}}}},
	}
	for name, sc := range cases {
		if err := sc.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestThreatCueAssessment(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	unit := geo.Position{Lat: 47.37, Lon: 8.54, Alt: 15}
	cue := ThreatCue{Level: "red", Confidence: 0.9, Types: []string{"weapon_detected"}, DistanceM: 4}

	a, err := cue.Assessment(now, unit)
	if err != nil {
		t.Fatalf("assessment: %v", err)
	}
	if a.Level != threat.Red || a.Confidence != 0.9 || a.ID == "" {
		t.Fatalf("unexpected assessment %+v", a)
	}
	if a.Description != threat.Red.Description() {
		t.Fatalf("expected level description, got %q", a.Description)
	}
	if len(a.RecommendedActions) != 1 {
		t.Fatalf("expected one recommended action, got %v", a.RecommendedActions)
	}
	if a.Position == nil {
		t.Fatalf("expected subject position")
	}
	d := geo.DistanceMeters(unit, geo.Position{Lat: a.Position.Lat, Lon: a.Position.Lon, Alt: unit.Alt})
	if math.Abs(d-4) > 0.1 {
		t.Fatalf("expected subject ~4m away, got %.2f", d)
	}
	mv := a.Evidence.Movement
	if mv == nil || mv.ProximityViolations == 0 || !mv.PursuitBehavior {
		t.Fatalf("unexpected movement evidence %+v", mv)
	}

	far := ThreatCue{Level: "yellow", Confidence: 0.7, DistanceM: 40}
	a, err = far.Assessment(now, unit)
	if err != nil {
		t.Fatalf("assessment: %v", err)
	}
	if a.Evidence.Movement.ProximityViolations != 0 || a.Evidence.Movement.PursuitBehavior {
		t.Fatalf("distant yellow subject should not violate proximity: %+v", a.Evidence.Movement)
	}
}

func TestBuiltInArcs(t *testing.T) {
	arcs := BuiltIn()
	names := []string{"intruder", "wildfire", "mob"}
	phases := []string{"setup", "escalation", "climax", "resolution"}
	for _, n := range names {
		arc, ok := arcs[n]
		if !ok {
			t.Fatalf("arc %s not found", n)
		}
		if arc.Description == "" {
			t.Fatalf("arc %s missing description", n)
		}
		if err := arc.Validate(); err != nil {
			t.Fatalf("arc %s invalid: %v", n, err)
		}
		if len(arc.Phases) != len(phases) {
			t.Fatalf("arc %s expected %d phases, got %d", n, len(phases), len(arc.Phases))
		}
		for i, ph := range phases {
			if arc.Phases[i].Name != ph {
				t.Fatalf("arc %s phase %d expected %s got %s", n, i, ph, arc.Phases[i].Name)
			}
		}
	}
}

func TestRunnerAdvancesOnElapsedTime(t *testing.T) {
	sc := BuiltIn()["intruder"]
	now := time.Unix(0, 0)
	r := NewRunner(&sc, func() time.Time { return now })

	if p := r.Current(); p.Name != "setup" {
		t.Fatalf("expected setup, got %s", p.Name)
	}
	now = now.Add(9 * time.Second)
	if _, ok := r.Tick(); ok {
		t.Fatalf("advanced too early")
	}
	now = now.Add(time.Second)
	p, ok := r.Tick()
	if !ok || p.Name != "escalation" {
		t.Fatalf("expected escalation, got %s", p.Name)
	}
	// elapsed time restarts with each phase
	now = now.Add(10 * time.Second)
	if _, ok := r.Tick(); ok {
		t.Fatalf("escalation should last 15s")
	}
	now = now.Add(5 * time.Second)
	if p, _ := r.Tick(); p.Name != "climax" {
		t.Fatalf("expected climax, got %s", p.Name)
	}
}

func TestRunnerObservesEvents(t *testing.T) {
	sc := BuiltIn()["wildfire"]
	now := time.Unix(0, 0)
	r := NewRunner(&sc, func() time.Time { return now })
	now = now.Add(10 * time.Second)
	r.Tick()
	now = now.Add(10 * time.Second)
	if p, _ := r.Tick(); p.Name != "climax" {
		t.Fatalf("expected climax, got %s", p.Name)
	}
	if _, ok := r.Observe(Event{Type: EventFireSuppressed, Value: 0}); ok {
		t.Fatalf("no suppression yet")
	}
	p, ok := r.Observe(Event{Type: EventFireSuppressed, Value: 1})
	if !ok || p.Name != "resolution" {
		t.Fatalf("expected resolution, got %s", p.Name)
	}
}
