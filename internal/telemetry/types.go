// Row types written by the unit's output sinks.
package telemetry

import (
	"slices"
	"time"

	"dark-phoenix/internal/state"
)

// Default GreptimeDB table names. Both can be overridden through the
// GREPTIMEDB_EVENT_TABLE and GREPTIMEDB_STATUS_TABLE environment variables.
const (
	DefaultEventTable  = "phoenix_events"
	DefaultStatusTable = "phoenix_status"
)

// EventRow is one mission log entry as exported to sinks.
type EventRow struct {
	ClusterID       string    `json:"cluster_id"` // TAG
	UnitID          string    `json:"unit_id"`    // TAG
	EventID         string    `json:"event_id"`
	EventType       string    `json:"event_type"`
	ThreatLevel     string    `json:"threat_level"`
	Description     string    `json:"description"`
	Lat             float64   `json:"lat"`
	Lon             float64   `json:"lon"`
	Alt             float64   `json:"alt"`
	ResponseActions []string  `json:"response_actions"` // JSON column
	Timestamp       time.Time `json:"ts"`               // TIME INDEX
}

func (EventRow) TableName() string { return DefaultEventTable }

// EventRowFrom flattens a mission event for export.
func EventRowFrom(clusterID, unitID string, e state.MissionEvent) EventRow {
	return EventRow{
		ClusterID:       clusterID,
		UnitID:          unitID,
		EventID:         e.ID,
		EventType:       string(e.Type),
		ThreatLevel:     e.ThreatLevel.String(),
		Description:     e.Description,
		Lat:             e.Position.Lat,
		Lon:             e.Position.Lon,
		Alt:             e.Position.Alt,
		ResponseActions: slices.Clone(e.ResponseActions),
		Timestamp:       e.Timestamp,
	}
}

// StatusRow is a periodic snapshot of the unit.
type StatusRow struct {
	ClusterID           string    `json:"cluster_id"` // TAG
	UnitID              string    `json:"unit_id"`    // TAG
	Name                string    `json:"name"`
	ThreatLevel         string    `json:"threat_level"`
	Critical            bool      `json:"critical"`
	ThreatScore         float64   `json:"threat_score"`
	Battery             float64   `json:"battery"`
	FlightTimeRemaining int       `json:"flight_time_remaining_s"`
	ShieldIntegrity     float64   `json:"shield_integrity"`
	CommsOK             bool      `json:"comms_ok"`
	GPSLock             bool      `json:"gps_lock"`
	SirenVolume         int       `json:"siren_volume"`
	StrobePattern       string    `json:"strobe_pattern"`
	VoiceMessage        string    `json:"voice_message"`
	FireArmed           bool      `json:"fire_armed"`
	FireHealth          string    `json:"fire_health"`
	FireDischarging     bool      `json:"fire_discharging"`
	FireCapacity        float64   `json:"fire_capacity"`
	FirePressure        float64   `json:"fire_pressure_psi"`
	Temperature         float64   `json:"temperature"`
	Smoke               float64   `json:"smoke"`
	Cycles              uint64    `json:"cycles"`
	Landed              bool      `json:"landed"`
	Timestamp           time.Time `json:"ts"` // TIME INDEX
}

func (StatusRow) TableName() string { return DefaultStatusTable }
