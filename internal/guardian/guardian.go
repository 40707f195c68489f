// Package guardian runs the protection cycle: it owns the command state,
// feeds threat assessments through the state machine and drives the
// deterrence and fire-suppression controllers.
//
// Lock order is Engine.mu before any controller lock. Controller timers only
// take their own controller's lock, so they never wait on the engine.
package guardian

import (
	"context"
	"errors"
	"sync"
	"time"

	"dark-phoenix/internal/clock"
	"dark-phoenix/internal/deterrence"
	"dark-phoenix/internal/firesuppression"
	"dark-phoenix/internal/geo"
	"dark-phoenix/internal/logging"
	"dark-phoenix/internal/state"
	"dark-phoenix/internal/telemetry"
	"dark-phoenix/internal/threat"
)

var (
	// ErrLanded is returned by operations attempted after an emergency landing.
	ErrLanded = errors.New("unit has landed")
	// ErrDeescalationDenied is returned when lowering the threat level is not
	// permitted by configuration or the requested level is not lower.
	ErrDeescalationDenied = errors.New("de-escalation denied")
)

// Detector produces one assessment per call. A nil assessment with a nil
// error means nothing was observed.
type Detector interface {
	Assess(ctx context.Context) (*threat.Assessment, error)
}

// SensitivityAdjuster is implemented by detectors whose sensitivity can be
// tuned at runtime.
type SensitivityAdjuster interface {
	SetSensitivity(v float64)
}

// PositionSource reports where the unit is.
type PositionSource interface {
	Position(ctx context.Context) (geo.Position, error)
}

// Config holds the scheduler policy.
type Config struct {
	Name      string
	ClusterID string

	TickInterval time.Duration
	// DetectionTimeout bounds each detector call; a timeout means no
	// assessment for that cycle.
	DetectionTimeout time.Duration
	// BatteryDrain is the battery percentage consumed per cycle.
	BatteryDrain float64
	// LowBattery is the level below which the unit escalates to Orange.
	LowBattery float64
	// StatusEvery publishes a status row every n cycles.
	StatusEvery int

	AllowDeescalation bool
	LogCapacity       int

	HistorySize         int
	Sensitivity         float64
	ConfidenceThreshold float64
	EnabledTypes        []threat.Type
}

// DefaultConfig returns the stock scheduler policy.
func DefaultConfig() Config {
	return Config{
		Name:                "Dark Phoenix Alpha",
		TickInterval:        100 * time.Millisecond,
		DetectionTimeout:    50 * time.Millisecond,
		BatteryDrain:        0.01,
		LowBattery:          20,
		StatusEvery:         10,
		LogCapacity:         state.DefaultLogCapacity,
		HistorySize:         threat.DefaultHistorySize,
		Sensitivity:         0.7,
		ConfidenceThreshold: 0.6,
		EnabledTypes:        threat.DefaultEnabledTypes,
	}
}

// Deps are the engine's collaborators. Position, Events and Status are
// optional.
type Deps struct {
	Detector   Detector
	Position   PositionSource
	Deterrence *deterrence.Controller
	Fire       *firesuppression.Controller
	Clock      clock.Clock
	Throttle   *logging.Throttle
	Events     telemetry.EventWriter
	Status     telemetry.StatusWriter
}

// Engine is the protection-cycle scheduler.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	state    *state.CommandState
	history  *threat.History
	detector Detector
	position PositionSource
	deter    *deterrence.Controller
	fire     *firesuppression.Controller
	clock    clock.Clock
	throttle *logging.Throttle

	cycles      uint64
	landed      bool
	halt        chan struct{}
	ignited     bool
	situation   string
	threatScore float64

	// last deterrence dispatch; repeated cycles at the same level and
	// situation leave the actuators alone.
	dispatched    bool
	lastLevel     threat.Level
	lastSituation string

	fireMark uint64

	// publishMu orders writer output. It is taken before mu is released so
	// rows reach the writers in the order they were produced.
	publishMu sync.Mutex
	events    telemetry.EventWriter
	status    telemetry.StatusWriter
	published uint64
}

// New builds an engine with a fresh command state at Green.
func New(cfg Config, deps Deps) *Engine {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.DetectionTimeout <= 0 {
		cfg.DetectionTimeout = def.DetectionTimeout
	}
	if cfg.StatusEvery <= 0 {
		cfg.StatusEvery = def.StatusEvery
	}
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	return &Engine{
		cfg: cfg,
		state: state.New(cfg.Name, state.Options{
			LogCapacity: cfg.LogCapacity,
			Now:         clk.Now,
		}),
		history:  threat.NewHistory(cfg.HistorySize, threat.NewFilter(cfg.Sensitivity, cfg.ConfidenceThreshold, cfg.EnabledTypes)),
		detector: deps.Detector,
		position: deps.Position,
		deter:    deps.Deterrence,
		fire:     deps.Fire,
		clock:    clk,
		throttle: deps.Throttle,
		halt:     make(chan struct{}),
		events:   deps.Events,
		status:   deps.Status,
	}
}

// Done is closed once the unit has landed.
func (e *Engine) Done() <-chan struct{} { return e.halt }

// Landed reports whether an emergency landing has happened.
func (e *Engine) Landed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.landed
}

// ID returns the unit's identifier.
func (e *Engine) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ID
}
