package firesuppression

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dark-phoenix/internal/risk"
)

var (
	// ErrNotReady is returned when an activation fails the readiness gate.
	ErrNotReady = errors.New("fire suppression not ready")
	// ErrSensorUnavailable is returned by sensors that cannot produce a reading.
	ErrSensorUnavailable = errors.New("sensor unavailable")
	// ErrActuator wraps valve and nozzle failures.
	ErrActuator = errors.New("fire suppression actuator failure")
	// ErrOverrideDisabled is returned by ManualActivate when manual override
	// is not permitted.
	ErrOverrideDisabled = errors.New("manual override disabled")
)

type Sensors interface {
	ReadTemperature(ctx context.Context) (float64, error)
	ReadSmokeLevel(ctx context.Context) (float64, error)
	ReadPressure(ctx context.Context) (float64, error)
}

type Valve interface {
	Open(ctx context.Context) error
	// Close must be idempotent.
	Close(ctx context.Context) error
}

type Nozzle interface {
	Deploy(ctx context.Context, pos NozzlePosition) error
	Retract(ctx context.Context) error
}

// NozzlePosition of the discharge nozzle.
type NozzlePosition int

const (
	Retracted NozzlePosition = iota
	Deployed
	Targeting
	Emergency
)

var nozzleNames = [...]string{"retracted", "deployed", "targeting", "emergency"}

var nozzleDescriptions = [...]string{
	"Nozzle retracted and secured",
	"Nozzle deployed and ready",
	"Nozzle targeting fire source",
	"Emergency deployment active",
}

func (p NozzlePosition) String() string {
	if p < Retracted || p > Emergency {
		return fmt.Sprintf("nozzle(%d)", int(p))
	}
	return nozzleNames[p]
}

func (p NozzlePosition) Description() string {
	if p < Retracted || p > Emergency {
		return ""
	}
	return nozzleDescriptions[p]
}

func (p NozzlePosition) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *NozzlePosition) UnmarshalText(b []byte) error {
	for i, n := range nozzleNames {
		if n == string(b) {
			*p = NozzlePosition(i)
			return nil
		}
	}
	return fmt.Errorf("unknown nozzle position %q", b)
}

// Health of the suppression system.
type Health int

const (
	Optimal Health = iota
	Degraded
	Critical
	Offline
)

var healthNames = [...]string{"optimal", "degraded", "critical", "offline"}

func (h Health) String() string {
	if h < Optimal || h > Offline {
		return fmt.Sprintf("health(%d)", int(h))
	}
	return healthNames[h]
}

func (h Health) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Health) UnmarshalText(b []byte) error {
	for i, n := range healthNames {
		if n == string(b) {
			*h = Health(i)
			return nil
		}
	}
	return fmt.Errorf("unknown health %q", b)
}

// State is a copy of the controller's state.
type State struct {
	Armed            bool           `json:"armed"`
	Pressure         float64        `json:"pressure_psi"`
	Capacity         float64        `json:"capacity"`
	Nozzle           NozzlePosition `json:"nozzle"`
	Temperature      float64        `json:"temperature"`
	Smoke            float64        `json:"smoke"`
	LastActivation   time.Time      `json:"last_activation"`
	TotalActivations int            `json:"total_activations"`
	Health           Health         `json:"health"`
	DischargeActive  bool           `json:"discharge_active"`
	ManualOverride   bool           `json:"manual_override"`
}

func defaultState() State {
	return State{
		Armed:       true,
		Pressure:    150,
		Capacity:    100,
		Nozzle:      Retracted,
		Temperature: 20,
		Health:      Optimal,
	}
}

// EventType tags a fire event.
type EventType string

const (
	TemperatureSpike  EventType = "temperature_spike"
	SmokeDetected     EventType = "smoke_detected"
	FlameDetected     EventType = "flame_detected"
	FireSuppressed    EventType = "fire_suppressed"
	SystemActivated   EventType = "system_activated"
	ManualOverride    EventType = "manual_override"
	EmergencyShutdown EventType = "emergency_shutdown"
)

// Event is one entry in the controller's bounded fire event history.
type Event struct {
	ID              string        `json:"id"`
	Timestamp       time.Time     `json:"ts"`
	Type            EventType     `json:"event_type"`
	Temperature     float64       `json:"temperature"`
	Smoke           float64       `json:"smoke"`
	Severity        risk.Severity `json:"severity"`
	ResponseActions []string      `json:"response_actions"`
}

// Description is the first response action, which carries the event text.
func (e Event) Description() string {
	if len(e.ResponseActions) == 0 {
		return string(e.Type)
	}
	return e.ResponseActions[0]
}
