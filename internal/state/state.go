// Package state holds the command state of a protection unit: identity,
// health, threat level and the bounded mission log.
//
// CommandState is not safe for concurrent use. The owner (the guardian
// engine) serializes access and hands out Snapshot copies to readers.
package state

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"dark-phoenix/internal/geo"
	"dark-phoenix/internal/ringbuf"
	"dark-phoenix/internal/threat"
)

// DefaultLogCapacity bounds the mission log when no capacity is configured.
const DefaultLogCapacity = 100

// FullFlightTime is the flight time available on a full battery.
const FullFlightTime = time.Hour

// TargetVitals is an optional snapshot of the protected person's vitals.
type TargetVitals struct {
	HeartRate   *int      `json:"heart_rate,omitempty"`
	BloodOxygen *int      `json:"blood_oxygen,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	StressLevel *int      `json:"stress_level,omitempty"` // 0-100
	Timestamp   time.Time `json:"ts"`
}

// SystemHealth is the unit's own health snapshot.
type SystemHealth struct {
	Battery              float64   `json:"battery"`
	FlightTimeRemaining  int       `json:"flight_time_remaining_s"`
	ShieldIntegrity      float64   `json:"shield_integrity"`
	FireSuppressionReady bool      `json:"fire_suppression_ready"`
	MedicalSupplies      float64   `json:"medical_supplies"`
	CommsOK              bool      `json:"comms_ok"`
	GPSLock              bool      `json:"gps_lock"`
	Timestamp            time.Time `json:"ts"`
}

// Options tunes a new CommandState.
type Options struct {
	// LogCapacity bounds the mission log. Oldest entries are evicted first.
	LogCapacity int
	Now         func() time.Time
}

// CommandState is the single source of truth for one protection unit.
type CommandState struct {
	ID           string
	Name         string
	ThreatLevel  threat.Level
	Position     geo.Position
	TargetVitals *TargetVitals
	Health       SystemHealth
	Subsystems   map[string]bool
	LastUpdate   time.Time

	log *ringbuf.Buffer[MissionEvent]
	now func() time.Time
}

// New returns a fully charged unit at threat level Green.
func New(name string, opts Options) *CommandState {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.LogCapacity <= 0 {
		opts.LogCapacity = DefaultLogCapacity
	}
	ts := now().UTC()
	return &CommandState{
		ID:          uuid.NewString(),
		Name:        name,
		ThreatLevel: threat.Green,
		Position:    geo.Position{Timestamp: ts},
		Health: SystemHealth{
			Battery:              100,
			FlightTimeRemaining:  int(FullFlightTime.Seconds()),
			ShieldIntegrity:      100,
			FireSuppressionReady: true,
			MedicalSupplies:      100,
			CommsOK:              true,
			GPSLock:              true,
			Timestamp:            ts,
		},
		Subsystems: make(map[string]bool),
		LastUpdate: ts,
		log:        ringbuf.New[MissionEvent](opts.LogCapacity),
		now:        now,
	}
}

// LogEvent appends an event stamped with the current level and position.
func (s *CommandState) LogEvent(t EventType, description string, actions ...string) MissionEvent {
	ts := s.now().UTC()
	ev := MissionEvent{
		ID:              uuid.NewString(),
		Timestamp:       ts,
		Type:            t,
		Description:     description,
		ThreatLevel:     s.ThreatLevel,
		Position:        s.Position,
		ResponseActions: append([]string{}, actions...),
	}
	s.log.Push(ev)
	s.LastUpdate = ts
	return ev.clone()
}

// Escalate raises the threat level and logs ThreatDetected. Levels at or
// below the current one are ignored; the return value reports whether the
// level changed.
func (s *CommandState) Escalate(level threat.Level, reason string) bool {
	if level <= s.ThreatLevel || !level.Valid() {
		return false
	}
	s.ThreatLevel = level
	s.LogEvent(ThreatDetected,
		fmt.Sprintf("Threat level escalated to %s: %s", level, reason),
		"Threat assessment: "+level.Description(),
	)
	return true
}

// SetThreatLevel assigns the level directly, including downwards. It is the
// only way to lower the level and is reserved for authorized de-escalation.
func (s *CommandState) SetThreatLevel(level threat.Level) error {
	if !level.Valid() {
		return fmt.Errorf("invalid threat level %d", int(level))
	}
	s.ThreatLevel = level
	s.LastUpdate = s.now().UTC()
	return nil
}

// IsCritical reports whether the unit needs immediate intervention.
func (s *CommandState) IsCritical() bool {
	return s.ThreatLevel >= threat.Red ||
		s.Health.Battery < 20 ||
		!s.Health.CommsOK ||
		s.Health.ShieldIntegrity < 50
}

// DrainBattery lowers the battery by amount, never below zero, and
// recomputes the remaining flight time.
func (s *CommandState) DrainBattery(amount float64) {
	if amount > 0 {
		s.Health.Battery = max(0, s.Health.Battery-amount)
	}
	s.Health.FlightTimeRemaining = int(FullFlightTime.Seconds() * s.Health.Battery / 100)
	s.Health.Timestamp = s.now().UTC()
}

// MissionLog returns the retained events, oldest first.
func (s *CommandState) MissionLog() []MissionEvent {
	items := s.log.Items()
	for i := range items {
		items[i] = items[i].clone()
	}
	return items
}

// TotalEvents counts every event ever logged, including evicted ones.
func (s *CommandState) TotalEvents() uint64 { return s.log.Pushed() }

// EventsSince returns retained events logged after the first mark events.
func (s *CommandState) EventsSince(mark uint64) []MissionEvent {
	items := s.log.Since(mark)
	for i := range items {
		items[i] = items[i].clone()
	}
	return items
}

// LogCapacity returns the mission log bound.
func (s *CommandState) LogCapacity() int { return s.log.Cap() }

// Snapshot returns a deep copy that shares nothing with s.
func (s *CommandState) Snapshot() *CommandState {
	cp := *s
	cp.Subsystems = maps.Clone(s.Subsystems)
	if s.TargetVitals != nil {
		v := *s.TargetVitals
		cp.TargetVitals = &v
	}
	cp.log = ringbuf.New[MissionEvent](s.log.Cap())
	for _, ev := range s.log.Items() {
		cp.log.Push(ev.clone())
	}
	return &cp
}

// Report renders a short human readable status.
func (s *CommandState) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dark Phoenix %s - Status: %s\n", s.Name, s.ThreatLevel)
	fmt.Fprintf(&b, "Battery: %.0f%% | Shield: %.0f%% | Flight Time: %dmin\n",
		s.Health.Battery, s.Health.ShieldIntegrity, s.Health.FlightTimeRemaining/60)
	b.WriteString(s.ThreatLevel.Description())
	return b.String()
}

type wireState struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	ThreatLevel  threat.Level    `json:"threat_level"`
	Position     geo.Position    `json:"position"`
	TargetVitals *TargetVitals   `json:"target_vitals,omitempty"`
	Health       SystemHealth    `json:"system_health"`
	Subsystems   map[string]bool `json:"active_subsystems"`
	MissionLog   []MissionEvent  `json:"mission_log"`
	LogCapacity  int             `json:"log_capacity"`
	LastUpdate   time.Time       `json:"last_update"`
}

func (s *CommandState) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState{
		ID:           s.ID,
		Name:         s.Name,
		ThreatLevel:  s.ThreatLevel,
		Position:     s.Position,
		TargetVitals: s.TargetVitals,
		Health:       s.Health,
		Subsystems:   s.Subsystems,
		MissionLog:   s.log.Items(),
		LogCapacity:  s.log.Cap(),
		LastUpdate:   s.LastUpdate,
	})
}

func (s *CommandState) UnmarshalJSON(data []byte) error {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	capacity := w.LogCapacity
	if capacity <= 0 {
		capacity = max(DefaultLogCapacity, len(w.MissionLog))
	}
	buf := ringbuf.New[MissionEvent](capacity)
	for _, ev := range w.MissionLog {
		if _, err := ParseEventType(string(ev.Type)); err != nil {
			return err
		}
		buf.Push(ev)
	}
	if w.Subsystems == nil {
		w.Subsystems = make(map[string]bool)
	}
	*s = CommandState{
		ID:           w.ID,
		Name:         w.Name,
		ThreatLevel:  w.ThreatLevel,
		Position:     w.Position,
		TargetVitals: w.TargetVitals,
		Health:       w.Health,
		Subsystems:   w.Subsystems,
		LastUpdate:   w.LastUpdate,
		log:          buf,
		now:          time.Now,
	}
	return nil
}
