// Package sim provides simulated sensors, actuators and a detector so the
// protection unit can run without hardware, optionally scripted by a
// scenario.
package sim

import (
	"context"
	"math/rand"
	"sync"

	"dark-phoenix/internal/firesuppression"
	"dark-phoenix/internal/logging"
	"dark-phoenix/internal/scenario"
)

// EnvironmentConfig tunes the simulated surroundings.
type EnvironmentConfig struct {
	AmbientTemp float64
	Pressure    float64
	// Noise is the standard deviation added to temperature readings.
	Noise float64
	// Dropout is the probability that a sensor read fails.
	Dropout float64
	// Cooling is the fraction of excess heat and smoke removed per read
	// while the valve is open.
	Cooling float64
	// PressureDrop is the psi lost per pressure read while discharging.
	PressureDrop float64
	Seed         int64
}

// DefaultEnvironmentConfig returns a calm environment.
func DefaultEnvironmentConfig() EnvironmentConfig {
	return EnvironmentConfig{
		AmbientTemp:  22,
		Pressure:     150,
		Noise:        0.2,
		Cooling:      0.25,
		PressureDrop: 2,
		Seed:         1,
	}
}

// Environment simulates the fire sensors and the suppression valve. An open
// valve cools the scene and bleeds pressure.
type Environment struct {
	mu          sync.Mutex
	cfg         EnvironmentConfig
	rng         *rand.Rand
	temperature float64
	smoke       float64
	pressure    float64
	valveOpen   bool
}

// NewEnvironment returns an environment at ambient conditions.
func NewEnvironment(cfg EnvironmentConfig) *Environment {
	return &Environment{
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		temperature: cfg.AmbientTemp,
		pressure:    cfg.Pressure,
	}
}

// SetFire applies a scenario fire cue. A nil cue leaves conditions alone.
func (e *Environment) SetFire(c *scenario.FireCue) {
	if c == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.temperature = c.Temperature
	e.smoke = min(1, max(0, c.Smoke))
}

// Conditions returns the true temperature and smoke level.
func (e *Environment) Conditions() (temperature, smoke float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.temperature, e.smoke
}

// ValveOpen reports whether the valve is discharging.
func (e *Environment) ValveOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.valveOpen
}

func (e *Environment) ReadTemperature(context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dropped() {
		return 0, firesuppression.ErrSensorUnavailable
	}
	if e.valveOpen {
		e.temperature -= (e.temperature - e.cfg.AmbientTemp) * e.cfg.Cooling
	}
	return e.temperature + e.rng.NormFloat64()*e.cfg.Noise, nil
}

func (e *Environment) ReadSmokeLevel(context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dropped() {
		return 0, firesuppression.ErrSensorUnavailable
	}
	if e.valveOpen {
		e.smoke -= e.smoke * e.cfg.Cooling
	}
	return e.smoke, nil
}

func (e *Environment) ReadPressure(context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dropped() {
		return 0, firesuppression.ErrSensorUnavailable
	}
	if e.valveOpen {
		e.pressure = max(0, e.pressure-e.cfg.PressureDrop)
	}
	return e.pressure, nil
}

func (e *Environment) Open(ctx context.Context) error {
	e.mu.Lock()
	e.valveOpen = true
	e.mu.Unlock()
	logging.FromContext(ctx).Info("valve opened")
	return nil
}

func (e *Environment) Close(ctx context.Context) error {
	e.mu.Lock()
	was := e.valveOpen
	e.valveOpen = false
	e.mu.Unlock()
	if was {
		logging.FromContext(ctx).Info("valve closed")
	}
	return nil
}

func (e *Environment) dropped() bool {
	return e.cfg.Dropout > 0 && e.rng.Float64() < e.cfg.Dropout
}
