// Package risk holds the pure scoring functions used by the protection cycle.
package risk

import (
	"fmt"

	"dark-phoenix/internal/threat"
)

// Severity bands a fire risk score.
type Severity int

const (
	Low Severity = iota
	Medium
	High
	Critical
)

func (s Severity) String() string {
	switch s {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	}
	return "unknown"
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) error {
	for v := Low; v <= Critical; v++ {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", b)
}

// Fire risk policy constants. These are fixed and not configurable.
const (
	ambientTemp      = 20.0
	tempSpan         = 50.0
	tempWeight       = 0.6
	smokeWeight      = 0.4
	criticalBoundary = 0.8
	highBoundary     = 0.6
	mediumBoundary   = 0.3
)

// FireInput is one sensor snapshot.
type FireInput struct {
	Temperature   float64
	Smoke         float64
	AutoTempLimit float64
}

// FireRisk scores a snapshot. The temperature only contributes once it
// exceeds the auto-activation limit.
func FireRisk(in FireInput) float64 {
	tempFactor := 0.0
	if in.Temperature > in.AutoTempLimit {
		tempFactor = max(0, (in.Temperature-ambientTemp)/tempSpan)
	}
	return tempWeight*tempFactor + smokeWeight*in.Smoke
}

// Classify bands a fire risk score.
func Classify(score float64) Severity {
	switch {
	case score >= criticalBoundary:
		return Critical
	case score >= highBoundary:
		return High
	case score >= mediumBoundary:
		return Medium
	}
	return Low
}

// AssessFire scores and bands a snapshot in one call.
func AssessFire(in FireInput) (float64, Severity) {
	s := FireRisk(in)
	return s, Classify(s)
}

// ThreatWindow is how many of the newest assessments feed ThreatScore.
const ThreatWindow = 10

// ThreatScore is the advisory aggregate risk over the newest ThreatWindow
// assessments. Older entries in history are ignored; an empty history scores 0.
func ThreatScore(history []threat.Assessment) float64 {
	if len(history) > ThreatWindow {
		history = history[len(history)-ThreatWindow:]
	}
	if len(history) == 0 {
		return 0
	}
	total := 0.0
	for _, a := range history {
		total += contribution(a)
	}
	return total / float64(len(history))
}

func contribution(a threat.Assessment) float64 {
	typeSum := 0.0
	for _, t := range a.Types {
		typeSum += t.SeverityMultiplier()
	}
	return float64(a.Level) * a.Confidence * (1 + typeSum/10)
}
