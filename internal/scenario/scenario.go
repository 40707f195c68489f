// Package scenario describes scripted threat drills: ordered phases, each
// with an optional threat cue and fire cue, and triggers that advance the
// drill.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"dark-phoenix/internal/geo"
	"dark-phoenix/internal/threat"
)

// Trigger event types understood by the simulation driver.
const (
	EventTimeElapsed    = "time_elapsed"    // seconds spent in the phase
	EventThreatLevel    = "threat_level"    // unit threat level ordinal
	EventFireSuppressed = "fire_suppressed" // total suppression activations
)

// Scenario defines a drill with ordered phases and an overall description.
type Scenario struct {
	Name        string  `yaml:"name,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Phases      []Phase `yaml:"phases"`
}

// Phase describes a stage of the drill and the triggers that end it.
type Phase struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Threat      *ThreatCue `yaml:"threat,omitempty"`
	Fire        *FireCue   `yaml:"fire,omitempty"`
	Triggers    []Trigger  `yaml:"triggers,omitempty"`
}

// ThreatCue is what the simulated detector reports during a phase.
type ThreatCue struct {
	Level       string   `yaml:"level"`
	Confidence  float64  `yaml:"confidence"`
	Types       []string `yaml:"types,omitempty"`
	Description string   `yaml:"description,omitempty"`
	// DistanceM places the subject this many meters north of the unit.
	DistanceM float64 `yaml:"distance_m,omitempty"`
}

// FireCue sets the simulated environment during a phase.
type FireCue struct {
	Temperature float64 `yaml:"temperature"`
	Smoke       float64 `yaml:"smoke"`
}

// Trigger moves the scenario to another phase based on an event.
type Trigger struct {
	Event string `yaml:"event"`
	Value int    `yaml:"value"`
	Next  string `yaml:"next"`
}

// Event represents a runtime occurrence that may advance the scenario.
type Event struct {
	Type  string
	Value int
}

// Load reads and validates a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks cue values and that every trigger targets a known phase.
func (s *Scenario) Validate() error {
	if len(s.Phases) == 0 {
		return errors.New("scenario has no phases")
	}
	names := make(map[string]bool, len(s.Phases))
	for _, p := range s.Phases {
		if names[p.Name] {
			return fmt.Errorf("duplicate phase %q", p.Name)
		}
		names[p.Name] = true
	}
	var errs []error
	for _, p := range s.Phases {
		if p.Threat != nil {
			if _, err := p.Threat.parse(); err != nil {
				errs = append(errs, fmt.Errorf("phase %s: %w", p.Name, err))
			}
		}
		for _, tr := range p.Triggers {
			if !names[tr.Next] {
				errs = append(errs, fmt.Errorf("phase %s: trigger targets unknown phase %q", p.Name, tr.Next))
			}
		}
	}
	return errors.Join(errs...)
}

// NextPhase returns the name of the next phase given the current phase and event.
// If no trigger matches, ok will be false.
func (s *Scenario) NextPhase(current string, ev Event) (next string, ok bool) {
	for _, p := range s.Phases {
		if p.Name != current {
			continue
		}
		for _, tr := range p.Triggers {
			if tr.Event == ev.Type && ev.Value >= tr.Value {
				return tr.Next, true
			}
		}
	}
	return "", false
}

// Phase returns the named phase.
func (s *Scenario) Phase(name string) (Phase, bool) {
	for _, p := range s.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

type parsedCue struct {
	level threat.Level
	types []threat.Type
}

func (c ThreatCue) parse() (parsedCue, error) {
	lvl, err := threat.ParseLevel(c.Level)
	if err != nil {
		return parsedCue{}, err
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return parsedCue{}, fmt.Errorf("confidence %.2f outside [0,1]", c.Confidence)
	}
	out := parsedCue{level: lvl}
	for _, s := range c.Types {
		t, err := threat.ParseType(s)
		if err != nil {
			return parsedCue{}, err
		}
		out.types = append(out.types, t)
	}
	return out, nil
}

// metersPerDegreeLat is the length of one degree of latitude.
const metersPerDegreeLat = 111320.0

// Assessment renders the cue as the detector would report it for a unit at
// unit. When DistanceM is set the subject's position and movement evidence
// are filled in.
func (c ThreatCue) Assessment(now time.Time, unit geo.Position) (threat.Assessment, error) {
	p, err := c.parse()
	if err != nil {
		return threat.Assessment{}, err
	}
	a := threat.Assessment{
		ID:          uuid.NewString(),
		Timestamp:   now,
		Level:       p.level,
		Confidence:  c.Confidence,
		Types:       p.types,
		Description: c.Description,
	}
	if a.Description == "" {
		a.Description = p.level.Description()
	}
	for _, t := range p.types {
		a.RecommendedActions = append(a.RecommendedActions, t.Description())
	}
	if c.DistanceM > 0 {
		subject := geo.Position{
			Lat:       unit.Lat + c.DistanceM/metersPerDegreeLat,
			Lon:       unit.Lon,
			Alt:       0,
			Timestamp: now,
		}
		a.Position = &subject
		d := geo.DistanceMeters(unit, geo.Position{Lat: subject.Lat, Lon: subject.Lon, Alt: unit.Alt})
		violations := 0
		if d < 10 {
			violations = int(math.Ceil((10 - d) / 2))
		}
		a.Evidence.Movement = &threat.MovementEvidence{
			ProximityViolations: violations,
			PursuitBehavior:     p.level >= threat.Orange,
		}
	}
	return a, nil
}
