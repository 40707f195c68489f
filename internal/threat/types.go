package threat

import (
	"fmt"
	"strings"
)

// Type tags the kind of threat contained in an assessment.
type Type string

const (
	PhysicalAggression  Type = "physical_aggression"
	WeaponDetected      Type = "weapon_detected"
	ErraticBehavior     Type = "erratic_behavior"
	HostileIntent       Type = "hostile_intent"
	GroupThreat         Type = "group_threat"
	EnvironmentalHazard Type = "environmental_hazard"
	VehicleThreat       Type = "vehicle_threat"
	CyberThreat         Type = "cyber_threat"
	UnknownAnomaly      Type = "unknown_anomaly"
)

type typeInfo struct {
	multiplier  float64
	description string
	// situation is the deterrence message key the type maps to.
	situation string
}

var types = map[Type]typeInfo{
	PhysicalAggression:  {1.5, "Physical aggression or violence detected", "aggression"},
	WeaponDetected:      {2.0, "Weapon or dangerous object identified", "weapon"},
	ErraticBehavior:     {1.2, "Erratic or suspicious movement patterns", "anomaly"},
	HostileIntent:       {1.3, "Hostile body language or intent detected", "proximity"},
	GroupThreat:         {1.8, "Multiple coordinated aggressors", "group_threat"},
	EnvironmentalHazard: {1.6, "Environmental danger present", "imminent_danger"},
	VehicleThreat:       {1.7, "Vehicle-based threat identified", "imminent_danger"},
	CyberThreat:         {1.4, "Cyber attack or hacking attempt", "anomaly"},
	UnknownAnomaly:      {1.1, "Unknown anomaly requiring investigation", "anomaly"},
}

// AllTypes lists every known threat type.
var AllTypes = []Type{
	PhysicalAggression, WeaponDetected, ErraticBehavior, HostileIntent, GroupThreat,
	EnvironmentalHazard, VehicleThreat, CyberThreat, UnknownAnomaly,
}

// DefaultEnabledTypes are the types a detector reports unless configured otherwise.
var DefaultEnabledTypes = []Type{
	PhysicalAggression, WeaponDetected, ErraticBehavior, HostileIntent, GroupThreat, EnvironmentalHazard,
}

// SeverityMultiplier weights the type in the aggregate risk score. Unknown
// types weigh zero.
func (t Type) SeverityMultiplier() float64 { return types[t].multiplier }

func (t Type) Description() string { return types[t].description }

// Situation returns the deterrence situation key for the type.
func (t Type) Situation() string { return types[t].situation }

// ParseType accepts the snake_case type name.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := types[t]; !ok {
		return "", fmt.Errorf("unknown threat type %q", s)
	}
	return t, nil
}

// SituationFor picks the situation of the most severe type in ts, or "" when
// ts is empty.
func SituationFor(ts []Type) string {
	best := ""
	bestMul := 0.0
	for _, t := range ts {
		if m := t.SeverityMultiplier(); m > bestMul {
			best, bestMul = t.Situation(), m
		}
	}
	return best
}
