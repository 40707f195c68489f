package guardian

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"dark-phoenix/internal/deterrence"
	"dark-phoenix/internal/firesuppression"
	"dark-phoenix/internal/geo"
	"dark-phoenix/internal/state"
	"dark-phoenix/internal/telemetry"
	"dark-phoenix/internal/threat"
)

// Status is a consistent read-only snapshot of the unit.
type Status struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	ThreatLevel threat.Level           `json:"threat_level"`
	Critical    bool                   `json:"critical"`
	ThreatScore float64                `json:"threat_score"`
	Sensitivity float64                `json:"sensitivity"`
	Position    geo.Position           `json:"position"`
	Health      state.SystemHealth     `json:"system_health"`
	Subsystems  map[string]bool        `json:"active_subsystems"`
	Deterrence  deterrence.State       `json:"deterrence"`
	Fire        *firesuppression.State `json:"fire_suppression,omitempty"`
	FireSummary string                 `json:"fire_summary,omitempty"`
	Cycles      uint64                 `json:"cycles"`
	Landed      bool                   `json:"landed"`
	LastUpdate  time.Time              `json:"last_update"`

	report string
}

// Status returns a snapshot taken under the engine lock.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

func (e *Engine) statusLocked() Status {
	s := Status{
		ID:          e.state.ID,
		Name:        e.state.Name,
		ThreatLevel: e.state.ThreatLevel,
		Critical:    e.state.IsCritical(),
		ThreatScore: e.threatScore,
		Sensitivity: e.history.Sensitivity(),
		Position:    e.state.Position,
		Health:      e.state.Health,
		Subsystems:  maps.Clone(e.state.Subsystems),
		Deterrence:  e.deterrenceState(),
		Cycles:      e.cycles,
		Landed:      e.landed,
		LastUpdate:  e.state.LastUpdate,
		report:      e.state.Report(),
	}
	if e.fire != nil {
		fs := e.fire.State()
		s.Fire = &fs
		s.FireSummary = e.fire.Summary()
	}
	return s
}

// Report renders the status for operators.
func (s Status) Report() string {
	var b strings.Builder
	b.WriteString(s.report)
	if s.Deterrence.CurrentMessage != "" {
		fmt.Fprintf(&b, "\nVoice: %q", s.Deterrence.CurrentMessage)
	}
	if s.FireSummary != "" {
		b.WriteString("\n" + s.FireSummary)
	}
	if s.Critical {
		b.WriteString("\nCRITICAL: immediate attention required")
	}
	if s.Landed {
		b.WriteString("\nLANDED: protection cycle halted")
	}
	return b.String()
}

// Row flattens the status for telemetry sinks.
func (s Status) Row(clusterID string) telemetry.StatusRow {
	row := telemetry.StatusRow{
		ClusterID:           clusterID,
		UnitID:              s.ID,
		Name:                s.Name,
		ThreatLevel:         s.ThreatLevel.String(),
		Critical:            s.Critical,
		ThreatScore:         s.ThreatScore,
		Battery:             s.Health.Battery,
		FlightTimeRemaining: s.Health.FlightTimeRemaining,
		ShieldIntegrity:     s.Health.ShieldIntegrity,
		CommsOK:             s.Health.CommsOK,
		GPSLock:             s.Health.GPSLock,
		SirenVolume:         s.Deterrence.SirenVolume,
		StrobePattern:       s.Deterrence.StrobePattern.String(),
		VoiceMessage:        s.Deterrence.CurrentMessage,
		Cycles:              s.Cycles,
		Landed:              s.Landed,
		Timestamp:           s.LastUpdate,
	}
	if s.Fire != nil {
		row.FireArmed = s.Fire.Armed
		row.FireHealth = s.Fire.Health.String()
		row.FireDischarging = s.Fire.DischargeActive
		row.FireCapacity = s.Fire.Capacity
		row.FirePressure = s.Fire.Pressure
		row.Temperature = s.Fire.Temperature
		row.Smoke = s.Fire.Smoke
	}
	return row
}

// Events returns the retained mission log, oldest first.
func (e *Engine) Events() []state.MissionEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.MissionLog()
}

// Snapshot returns a deep copy of the command state.
func (e *Engine) Snapshot() *state.CommandState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot()
}

// FireEvents returns the fire controller's retained history.
func (e *Engine) FireEvents() []firesuppression.Event {
	if e.fire == nil {
		return nil
	}
	return e.fire.Events()
}
