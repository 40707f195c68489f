package state

import (
	"fmt"
	"time"

	"dark-phoenix/internal/geo"
	"dark-phoenix/internal/threat"
)

// EventType tags a mission log entry.
type EventType string

const (
	ThreatDetected       EventType = "threat_detected"
	SubsystemActivated   EventType = "subsystem_activated"
	PoliceContacted      EventType = "police_contacted"
	ShieldDeployed       EventType = "shield_deployed"
	FireSuppressed       EventType = "fire_suppressed"
	MedicalAidDeployed   EventType = "medical_aid_deployed"
	HackingAttempt       EventType = "hacking_attempt"
	SystemMalfunction    EventType = "system_malfunction"
	MissionComplete      EventType = "mission_complete"
	CeremonialActivation EventType = "ceremonial_activation"
)

var eventTypes = map[EventType]struct{}{
	ThreatDetected: {}, SubsystemActivated: {}, PoliceContacted: {}, ShieldDeployed: {},
	FireSuppressed: {}, MedicalAidDeployed: {}, HackingAttempt: {}, SystemMalfunction: {},
	MissionComplete: {}, CeremonialActivation: {},
}

// ParseEventType validates a serialized event type.
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if _, ok := eventTypes[t]; !ok {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return t, nil
}

// MissionEvent is one immutable mission log entry. ThreatLevel and Position
// are captured when the event is logged.
type MissionEvent struct {
	ID              string       `json:"id"`
	Timestamp       time.Time    `json:"ts"`
	Type            EventType    `json:"event_type"`
	Description     string       `json:"description"`
	ThreatLevel     threat.Level `json:"threat_level"`
	Position        geo.Position `json:"position"`
	ResponseActions []string     `json:"response_actions"`
}

func (e MissionEvent) clone() MissionEvent {
	if e.ResponseActions != nil {
		e.ResponseActions = append([]string(nil), e.ResponseActions...)
	}
	return e
}
