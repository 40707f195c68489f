// Package firesuppression monitors heat and smoke and drives the
// extinguisher valve and nozzle.
//
// Discharges are bounded twice: by the cooldown between non-emergency
// activations and by an auto-stop timer that closes the valve after the
// maximum discharge duration.
package firesuppression

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"dark-phoenix/internal/clock"
	"dark-phoenix/internal/logging"
	"dark-phoenix/internal/ringbuf"
	"dark-phoenix/internal/risk"
)

// Config holds the suppression policy.
type Config struct {
	AutoActivationTemp  float64
	SmokeSensitivity    float64
	MaxDischarge        time.Duration
	Cooldown            time.Duration
	AllowManualOverride bool
	MinPressure         float64
	// SettleDelay is the wait between closing the valve and retracting the nozzle.
	SettleDelay time.Duration
	// DrainPerSecond is the capacity percentage consumed per second of discharge.
	DrainPerSecond float64
	HistorySize    int
}

// DefaultConfig returns the stock policy.
func DefaultConfig() Config {
	return Config{
		AutoActivationTemp:  60,
		SmokeSensitivity:    0.7,
		MaxDischarge:        10 * time.Second,
		Cooldown:            30 * time.Second,
		AllowManualOverride: true,
		MinPressure:         100,
		SettleDelay:         2 * time.Second,
		DrainPerSecond:      5,
		HistorySize:         100,
	}
}

const minCapacity = 5.0

// Controller owns the suppression state. All methods are safe for concurrent
// use; timers take the same lock.
type Controller struct {
	mu       sync.Mutex
	cfg      Config
	sensors  Sensors
	valve    Valve
	nozzle   Nozzle
	clock    clock.Clock
	throttle *logging.Throttle

	state  State
	events *ringbuf.Buffer[Event]

	// gen identifies the current discharge so stale auto-stop timers can
	// tell they no longer own the valve.
	gen        uint64
	drainedAt  time.Time
	retract    clock.Timer
	aboveTemp  bool
	aboveSmoke bool
}

// NewController returns an armed controller with a full extinguisher.
func NewController(cfg Config, sensors Sensors, valve Valve, nozzle Nozzle, clk clock.Clock, throttle *logging.Throttle) *Controller {
	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 100
	}
	return &Controller{
		cfg:      cfg,
		sensors:  sensors,
		valve:    valve,
		nozzle:   nozzle,
		clock:    clk,
		throttle: throttle,
		state:    defaultState(),
		events:   ringbuf.New[Event](cfg.HistorySize),
	}
}

// MonitorAndRespond refreshes the sensors and reacts to the resulting risk.
// It returns the assessed severity. A readiness failure during activation is
// returned; sensor and actuator trouble is logged and absorbed.
func (c *Controller) MonitorAndRespond(ctx context.Context) (risk.Severity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.readSensors(ctx)
	c.accountDischarge(now)
	c.updateHealth()
	severity := c.severity()
	c.recordCrossings(severity)

	switch severity {
	case risk.Low:
		if c.state.DischargeActive {
			c.stopLocked(ctx, "Fire suppression discharge stopped")
		}
	case risk.Medium:
		c.prepareLocked(ctx)
	case risk.High, risk.Critical:
		// An active discharge is only restarted when a standard discharge
		// meets a critical reading; it then becomes an emergency discharge.
		if c.state.DischargeActive && (severity == risk.High || c.state.Nozzle == Emergency) {
			break
		}
		if _, err := c.activateLocked(ctx, severity == risk.Critical); err != nil {
			return severity, err
		}
	}
	return severity, nil
}

// ActivateSuppression opens the valve unless the cooldown or readiness gate
// stops it. A cooldown skip returns false with no error. A failed readiness
// gate returns an error wrapping ErrNotReady and leaves the state untouched.
func (c *Controller) ActivateSuppression(ctx context.Context, emergency bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accountDischarge(c.clock.Now())
	return c.activateLocked(ctx, emergency)
}

// ManualActivate sets the manual override and activates, bypassing the
// cooldown. The override is reverted if activation fails.
func (c *Controller) ManualActivate(ctx context.Context) error {
	if !c.cfg.AllowManualOverride {
		return ErrOverrideDisabled
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	logging.FromContext(ctx).Warn("manual fire suppression override activated")

	c.accountDischarge(c.clock.Now())
	prev := c.state.ManualOverride
	c.state.ManualOverride = true
	if _, err := c.activateLocked(ctx, false); err != nil {
		c.state.ManualOverride = prev
		return err
	}
	c.logEvent(ManualOverride, "Manual fire suppression override activated")
	return nil
}

// StopDischarge closes the valve if a discharge is active.
func (c *Controller) StopDischarge(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.DischargeActive {
		c.accountDischarge(c.clock.Now())
		c.stopLocked(ctx, "Fire suppression discharge stopped")
	}
}

// Disarm stops any discharge, secures the nozzle and takes the system
// offline until Arm is called.
func (c *Controller) Disarm(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	log := logging.FromContext(ctx)

	if c.state.DischargeActive {
		c.accountDischarge(c.clock.Now())
		c.stopLocked(ctx, "Fire suppression discharge stopped")
	} else if err := c.valve.Close(ctx); err != nil {
		log.Error("valve close failed", "err", fmt.Errorf("%w: %w", ErrActuator, err))
	}
	c.cancelRetract()
	if c.state.Nozzle != Retracted {
		if err := c.nozzle.Retract(ctx); err != nil {
			log.Error("nozzle retract failed", "err", fmt.Errorf("%w: %w", ErrActuator, err))
		}
		c.state.Nozzle = Retracted
	}
	c.state.Armed = false
	c.state.Health = Offline
	c.logEvent(EmergencyShutdown, "Fire suppression disarmed")
	log.Info("fire suppression disarmed")
}

// Arm brings a disarmed system back online.
func (c *Controller) Arm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Armed = true
	c.state.Health = Optimal
	c.updateHealth()
}

// Ready reports whether an activation would pass the readiness gate.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyLocked() == nil
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Events returns the retained fire events, oldest first.
func (c *Controller) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events.Items()
}

// EventMark returns the number of events logged so far, for EventsSince.
func (c *Controller) EventMark() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events.Pushed()
}

// EventsSince returns retained events logged after mark together with the
// mark to pass on the next call.
func (c *Controller) EventsSince(mark uint64) ([]Event, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events.Since(mark), c.events.Pushed()
}

// Summary renders a one-line status.
func (c *Controller) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	status := "standby"
	switch {
	case s.DischargeActive:
		status = "DISCHARGING"
	case s.Nozzle != Retracted:
		status = "ready"
	}
	return fmt.Sprintf("Fire Suppression %s | %s | Health: %s | Pressure: %.0f PSI | Capacity: %.0f%% | Temp: %.1fC | Smoke: %.1f%%",
		status, s.Nozzle.Description(), s.Health, s.Pressure, s.Capacity, s.Temperature, s.Smoke*100)
}

// SelfTest deploys and retracts the nozzle and reads every sensor. It refuses
// to run during a discharge.
func (c *Controller) SelfTest(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	log := logging.FromContext(ctx)
	if c.state.DischargeActive {
		return fmt.Errorf("self-test refused: discharge in progress")
	}
	log.Info("fire suppression self-test started")

	if err := c.nozzle.Deploy(ctx, Deployed); err != nil {
		return fmt.Errorf("%w: nozzle deploy: %w", ErrActuator, err)
	}
	pressure, perr := c.sensors.ReadPressure(ctx)
	temp, terr := c.sensors.ReadTemperature(ctx)
	smoke, serr := c.sensors.ReadSmokeLevel(ctx)
	rerr := c.nozzle.Retract(ctx)
	c.state.Nozzle = Retracted

	for _, err := range []error{perr, terr, serr} {
		if err != nil {
			return fmt.Errorf("self-test sensor read: %w", err)
		}
	}
	if rerr != nil {
		return fmt.Errorf("%w: nozzle retract: %w", ErrActuator, rerr)
	}
	log.Info("fire suppression self-test passed", "pressure", pressure, "temperature", temp, "smoke", smoke)
	return nil
}

func (c *Controller) readSensors(ctx context.Context) {
	if v, err := c.sensors.ReadTemperature(ctx); err == nil {
		c.state.Temperature = v
	} else {
		c.throttle.Warn(ctx, "fire.temperature", "sensor unavailable, holding last value", "sensor", "temperature", "err", err)
	}
	if v, err := c.sensors.ReadSmokeLevel(ctx); err == nil {
		c.state.Smoke = min(1, max(0, v))
	} else {
		c.throttle.Warn(ctx, "fire.smoke", "sensor unavailable, holding last value", "sensor", "smoke", "err", err)
	}
	if v, err := c.sensors.ReadPressure(ctx); err == nil {
		c.state.Pressure = v
	} else {
		c.throttle.Warn(ctx, "fire.pressure", "sensor unavailable, holding last value", "sensor", "pressure", "err", err)
	}
}

// accountDischarge drains capacity for the time the valve has been open.
func (c *Controller) accountDischarge(now time.Time) {
	if !c.state.DischargeActive {
		return
	}
	if elapsed := now.Sub(c.drainedAt); elapsed > 0 {
		c.state.Capacity = max(0, c.state.Capacity-c.cfg.DrainPerSecond*elapsed.Seconds())
	}
	c.drainedAt = now
}

func (c *Controller) updateHealth() {
	switch {
	case c.state.Health == Offline:
	case c.state.Pressure < c.cfg.MinPressure:
		c.state.Health = Critical
	case c.state.Capacity < 20:
		c.state.Health = Degraded
	default:
		c.state.Health = Optimal
	}
}

func (c *Controller) severity() risk.Severity {
	return risk.Classify(risk.FireRisk(risk.FireInput{
		Temperature:   c.state.Temperature,
		Smoke:         c.state.Smoke,
		AutoTempLimit: c.cfg.AutoActivationTemp,
	}))
}

// recordCrossings logs detection events when a reading rises past its
// threshold.
func (c *Controller) recordCrossings(sev risk.Severity) {
	aboveTemp := c.state.Temperature > c.cfg.AutoActivationTemp
	aboveSmoke := c.state.Smoke >= c.cfg.SmokeSensitivity
	if aboveTemp && !c.aboveTemp {
		c.logEventSeverity(TemperatureSpike, fmt.Sprintf("Temperature spike: %.1fC", c.state.Temperature), sev)
	}
	if aboveSmoke && !c.aboveSmoke {
		c.logEventSeverity(SmokeDetected, fmt.Sprintf("Smoke detected: %.0f%%", c.state.Smoke*100), sev)
	}
	if aboveTemp && aboveSmoke && !(c.aboveTemp && c.aboveSmoke) {
		c.logEventSeverity(FlameDetected, "Heat and smoke indicate open flame", sev)
	}
	c.aboveTemp, c.aboveSmoke = aboveTemp, aboveSmoke
}

func (c *Controller) prepareLocked(ctx context.Context) {
	if c.state.Nozzle != Retracted {
		return
	}
	if err := c.nozzle.Deploy(ctx, Deployed); err != nil {
		logging.FromContext(ctx).Error("nozzle deploy failed", "err", fmt.Errorf("%w: %w", ErrActuator, err))
		return
	}
	c.state.Nozzle = Deployed
	c.logEvent(SystemActivated, "Fire suppression system prepared for activation")
}

func (c *Controller) readyLocked() error {
	switch {
	case !c.state.Armed:
		return fmt.Errorf("%w: system unarmed", ErrNotReady)
	case c.state.Pressure < c.cfg.MinPressure:
		return fmt.Errorf("%w: pressure %.0f PSI below minimum %.0f PSI", ErrNotReady, c.state.Pressure, c.cfg.MinPressure)
	case c.state.Capacity <= minCapacity:
		return fmt.Errorf("%w: capacity %.0f%% exhausted", ErrNotReady, c.state.Capacity)
	case c.state.Health == Offline:
		return fmt.Errorf("%w: system offline", ErrNotReady)
	}
	return nil
}

func (c *Controller) activateLocked(ctx context.Context, emergency bool) (bool, error) {
	log := logging.FromContext(ctx)
	now := c.clock.Now()

	if !emergency && !c.state.ManualOverride && !c.state.LastActivation.IsZero() {
		if elapsed := now.Sub(c.state.LastActivation); elapsed < c.cfg.Cooldown {
			log.Warn("fire suppression in cooldown, skipping activation", "remaining", c.cfg.Cooldown-elapsed)
			return false, nil
		}
	}
	if err := c.readyLocked(); err != nil {
		log.Error("fire suppression activation refused", "err", err)
		return false, err
	}

	mode, pos := "STANDARD", Targeting
	if emergency {
		mode, pos = "EMERGENCY", Emergency
	}
	if err := c.valve.Open(ctx); err != nil {
		err = fmt.Errorf("%w: valve open: %w", ErrActuator, err)
		log.Error("fire suppression activation failed", "err", err)
		return false, err
	}
	c.cancelRetract()
	if err := c.nozzle.Deploy(ctx, pos); err != nil {
		log.Error("nozzle positioning failed", "err", fmt.Errorf("%w: %w", ErrActuator, err))
	}
	c.state.Nozzle = pos
	c.state.DischargeActive = true
	c.state.LastActivation = now.UTC()
	c.state.TotalActivations++
	c.drainedAt = now
	c.gen++
	c.logEvent(SystemActivated, mode+" fire suppression activated")

	gen := c.gen
	stopCtx := context.WithoutCancel(ctx)
	c.clock.AfterFunc(c.cfg.MaxDischarge, func() { c.autoStop(stopCtx, gen) })

	log.Error("fire suppression activated", "mode", mode, "auto_stop_in", c.cfg.MaxDischarge)
	return true, nil
}

// autoStop runs on the discharge timer. It always leaves the valve closed
// unless a newer discharge owns it.
func (c *Controller) autoStop(ctx context.Context, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.state.DischargeActive && c.gen == gen:
		c.accountDischarge(c.clock.Now())
		c.stopLocked(ctx, "Fire suppression auto-stopped after maximum discharge duration")
	case !c.state.DischargeActive:
		if err := c.valve.Close(ctx); err != nil {
			logging.FromContext(ctx).Error("auto-stop valve close failed", "err", fmt.Errorf("%w: %w", ErrActuator, err))
		}
	}
}

func (c *Controller) stopLocked(ctx context.Context, reason string) {
	log := logging.FromContext(ctx)
	if err := c.valve.Close(ctx); err != nil {
		log.Error("valve close failed", "err", fmt.Errorf("%w: %w", ErrActuator, err))
	}
	c.state.DischargeActive = false
	c.state.ManualOverride = false
	c.logEvent(FireSuppressed, reason)
	log.Info("fire suppression discharge stopped", "reason", reason)

	c.cancelRetract()
	retractCtx := context.WithoutCancel(ctx)
	var t clock.Timer
	t = c.clock.AfterFunc(c.cfg.SettleDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.retract != t {
			return
		}
		c.retract = nil
		if c.state.DischargeActive || c.state.Nozzle == Retracted {
			return
		}
		if err := c.nozzle.Retract(retractCtx); err != nil {
			log.Error("nozzle retract failed", "err", fmt.Errorf("%w: %w", ErrActuator, err))
			return
		}
		c.state.Nozzle = Retracted
	})
	c.retract = t
}

func (c *Controller) cancelRetract() {
	if c.retract != nil {
		c.retract.Stop()
		c.retract = nil
	}
}

func (c *Controller) logEvent(t EventType, description string) {
	c.logEventSeverity(t, description, c.severity())
}

func (c *Controller) logEventSeverity(t EventType, description string, sev risk.Severity) {
	c.events.Push(Event{
		ID:              uuid.NewString(),
		Timestamp:       c.clock.Now().UTC(),
		Type:            t,
		Temperature:     c.state.Temperature,
		Smoke:           c.state.Smoke,
		Severity:        sev,
		ResponseActions: []string{description},
	})
}
