package sim

import (
	"context"
	"time"

	"dark-phoenix/internal/clock"
	"dark-phoenix/internal/guardian"
	"dark-phoenix/internal/logging"
	"dark-phoenix/internal/scenario"
)

// StatusSource is the part of the engine the driver watches.
type StatusSource interface {
	Status() guardian.Status
}

// Driver plays a scenario against the simulated detector and environment,
// advancing phases on elapsed time and on what the unit reports.
type Driver struct {
	runner   *scenario.Runner
	detector *Detector
	env      *Environment
	unit     StatusSource
}

// NewDriver applies the first phase of sc immediately.
func NewDriver(sc *scenario.Scenario, clk clock.Clock, det *Detector, env *Environment, unit StatusSource) *Driver {
	if clk == nil {
		clk = clock.Real{}
	}
	d := &Driver{
		runner:   scenario.NewRunner(sc, clk.Now),
		detector: det,
		env:      env,
		unit:     unit,
	}
	d.apply(d.runner.Current())
	return d
}

// Phase returns the active phase.
func (d *Driver) Phase() scenario.Phase { return d.runner.Current() }

// Run steps the scenario every interval until ctx is done.
func (d *Driver) Run(ctx context.Context, interval time.Duration) {
	log := logging.FromContext(ctx)
	log.Info("scenario started", "phase", d.runner.Current().Name)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.Step(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Step checks every trigger once and applies the new phase on a transition.
func (d *Driver) Step(ctx context.Context) {
	p, ok := d.runner.Tick()
	if !ok && d.unit != nil {
		st := d.unit.Status()
		p, ok = d.runner.Observe(scenario.Event{Type: scenario.EventThreatLevel, Value: int(st.ThreatLevel)})
		if !ok && st.Fire != nil {
			p, ok = d.runner.Observe(scenario.Event{Type: scenario.EventFireSuppressed, Value: st.Fire.TotalActivations})
		}
	}
	if !ok {
		return
	}
	logging.FromContext(ctx).Info("scenario phase", "phase", p.Name, "description", p.Description)
	d.apply(p)
}

func (d *Driver) apply(p scenario.Phase) {
	if d.detector != nil {
		d.detector.SetCue(p.Threat)
	}
	if d.env != nil {
		d.env.SetFire(p.Fire)
	}
}
