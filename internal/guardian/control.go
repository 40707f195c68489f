package guardian

import (
	"context"
	"errors"
	"fmt"

	"dark-phoenix/internal/deterrence"
	"dark-phoenix/internal/logging"
	"dark-phoenix/internal/state"
	"dark-phoenix/internal/threat"
)

// EmergencyLanding halts the protection cycle. Deterrence is switched off and
// fire suppression disarmed exactly once; later calls return ErrLanded. A
// cycle in progress completes before the landing is applied.
func (e *Engine) EmergencyLanding(ctx context.Context) error {
	log := logging.FromContext(ctx)
	e.mu.Lock()
	if e.landed {
		e.mu.Unlock()
		return ErrLanded
	}
	e.landed = true
	e.state.LogEvent(state.SystemMalfunction, "Emergency landing initiated",
		"All systems shutting down safely")
	log.Error("emergency landing protocol activated", "level", e.state.ThreatLevel)

	for name := range e.state.Subsystems {
		e.state.Subsystems[name] = false
	}
	if e.deter != nil {
		if err := e.deter.Deactivate(ctx); err != nil {
			log.Error("deterrence shutdown failed", "err", err)
		}
	}
	if e.fire != nil {
		e.fire.Disarm(ctx)
		e.syncFireEvents()
	}
	e.state.Health.FireSuppressionReady = false
	e.state.LastUpdate = e.clock.Now().UTC()
	close(e.halt)
	e.unlockAndPublish(ctx, true)
	return nil
}

// Deescalate lowers the threat level. It requires AllowDeescalation and a
// level strictly below the current one. Reaching Green completes the
// mission.
func (e *Engine) Deescalate(ctx context.Context, level threat.Level, reason string) error {
	e.mu.Lock()
	if e.landed {
		e.mu.Unlock()
		return ErrLanded
	}
	if !e.cfg.AllowDeescalation {
		e.mu.Unlock()
		return ErrDeescalationDenied
	}
	current := e.state.ThreatLevel
	if level >= current {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s is not below %s", ErrDeescalationDenied, level, current)
	}
	if err := e.state.SetThreatLevel(level); err != nil {
		e.mu.Unlock()
		return err
	}
	if reason == "" {
		reason = "operator request"
	}
	desc := fmt.Sprintf("Threat level de-escalated to %s: %s", level, reason)
	ceremony := deterrence.CeremonyRetreat
	if level == threat.Green {
		e.state.LogEvent(state.MissionComplete, desc, "Threat assessment: "+level.Description())
		e.situation = ""
		ceremony = deterrence.CeremonyVictory
	} else {
		e.state.LogEvent(state.ThreatDetected, desc, "Threat assessment: "+level.Description())
	}
	logging.FromContext(ctx).Info("threat de-escalated", "from", current, "to", level, "reason", reason)

	// Apply the lower profile now so the announcement is not cut off by the
	// next cycle.
	e.dispatched = false
	e.dispatchDeterrence(ctx)
	if e.deter != nil {
		if err := e.deter.Announce(ctx, ceremony); err != nil {
			e.throttle.Warn(ctx, "deterrence-actuator", "announcement failed", "err", err)
		}
	}
	e.unlockAndPublish(ctx, true)
	return nil
}

// ManualFireSuppression starts an operator-requested discharge.
func (e *Engine) ManualFireSuppression(ctx context.Context) error {
	e.mu.Lock()
	if e.landed {
		e.mu.Unlock()
		return ErrLanded
	}
	if e.fire == nil {
		e.mu.Unlock()
		return errors.New("fire suppression not installed")
	}
	err := e.fire.ManualActivate(ctx)
	e.syncFireEvents()
	e.unlockAndPublish(ctx, true)
	return err
}

// SelfTest runs the deterrence and fire-suppression self-tests. Deterrence is
// re-dispatched on the next cycle because the test leaves it switched off.
func (e *Engine) SelfTest(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.landed {
		return ErrLanded
	}
	var errs []error
	if e.deter != nil {
		if err := e.deter.SelfTest(ctx); err != nil {
			errs = append(errs, fmt.Errorf("deterrence: %w", err))
		}
		e.dispatched = false
	}
	if e.fire != nil {
		if err := e.fire.SelfTest(ctx); err != nil {
			errs = append(errs, fmt.Errorf("fire suppression: %w", err))
		}
	}
	return errors.Join(errs...)
}

// AdjustSensitivity sets the detection sensitivity, clamped to [0, 1], and
// passes it on to detectors that support tuning.
func (e *Engine) AdjustSensitivity(ctx context.Context, v float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	v = e.history.AdjustSensitivity(v)
	if sa, ok := e.detector.(SensitivityAdjuster); ok {
		sa.SetSensitivity(v)
	}
	logging.FromContext(ctx).Info("threat detection sensitivity adjusted", "sensitivity", v)
	return v
}
