package guardian

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dark-phoenix/internal/deterrence"
	"dark-phoenix/internal/firesuppression"
	"dark-phoenix/internal/geo"
	"dark-phoenix/internal/logging"
	"dark-phoenix/internal/risk"
	"dark-phoenix/internal/state"
	"dark-phoenix/internal/telemetry"
	"dark-phoenix/internal/threat"
)

const (
	awakening       = "Dark Phoenix has awakened. Guardian protocols active."
	lowBatteryCause = "Critical battery level detected"
)

// Run logs the awakening event and cycles until ctx is done or the unit
// lands. A cycle that overruns the tick delays the next one; cycles never
// overlap.
func (e *Engine) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("dark phoenix igniting", "name", e.cfg.Name, "tick_interval", e.cfg.TickInterval)
	e.Ignite(ctx)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.cycle(ctx)
		case <-e.halt:
			log.Warn("protection cycle halted after emergency landing")
			return
		case <-ctx.Done():
			log.Info("stopping protection cycle")
			return
		}
	}
}

// Ignite logs the ceremonial awakening once.
func (e *Engine) Ignite(ctx context.Context) {
	e.mu.Lock()
	if e.ignited || e.landed {
		e.mu.Unlock()
		return
	}
	e.ignited = true
	e.state.LogEvent(state.CeremonialActivation, awakening,
		"All systems online", "Protection mode engaged")
	e.unlockAndPublish(ctx, true)
}

// cycle runs one protection cycle. Collaborator calls that may block (the
// detector and the position source) happen before the engine lock is taken;
// everything they produce is then applied atomically.
func (e *Engine) cycle(ctx context.Context) {
	if e.Landed() {
		return
	}
	assessment := e.detect(ctx)
	pos, havePos := e.locate(ctx)

	e.mu.Lock()
	if e.landed {
		e.mu.Unlock()
		return
	}
	e.cycles++
	now := e.clock.Now().UTC()

	if havePos {
		e.state.Position = pos
	}
	e.updateHealth(ctx)
	if assessment != nil {
		e.applyAssessment(ctx, *assessment)
	}
	e.dispatchDeterrence(ctx)
	e.respondToFire(ctx)
	e.state.LastUpdate = now

	e.unlockAndPublish(ctx, e.cycles%uint64(e.cfg.StatusEvery) == 0)
}

type detection struct {
	assessment *threat.Assessment
	err        error
}

// detect asks the detector for one assessment. The call is abandoned when
// the detection timeout expires, even if the detector ignores its context.
func (e *Engine) detect(ctx context.Context) *threat.Assessment {
	if e.detector == nil {
		return nil
	}
	dctx, cancel := context.WithTimeout(ctx, e.cfg.DetectionTimeout)
	defer cancel()
	ch := make(chan detection, 1)
	go func() {
		a, err := e.detector.Assess(dctx)
		ch <- detection{a, err}
	}()

	var d detection
	select {
	case d = <-ch:
	case <-dctx.Done():
		d.err = dctx.Err()
	}
	switch {
	case errors.Is(d.err, context.DeadlineExceeded):
		e.throttle.Warn(ctx, "detector-timeout", "threat detection timed out", "timeout", e.cfg.DetectionTimeout)
		return nil
	case d.err != nil:
		e.throttle.Warn(ctx, "detector-error", "threat detection failed", "err", d.err)
		return nil
	}
	return d.assessment
}

func (e *Engine) locate(ctx context.Context) (geo.Position, bool) {
	if e.position == nil {
		return geo.Position{}, false
	}
	p, err := e.position.Position(ctx)
	if err != nil {
		e.throttle.Warn(ctx, "position-error", "position unavailable", "err", err)
		return geo.Position{}, false
	}
	return p, true
}

func (e *Engine) updateHealth(ctx context.Context) {
	e.state.DrainBattery(e.cfg.BatteryDrain)
	h := e.state.Health
	if h.Battery < e.cfg.LowBattery && e.state.ThreatLevel < threat.Orange {
		logging.FromContext(ctx).Warn("battery critical", "battery", h.Battery)
		e.state.Escalate(threat.Orange, lowBatteryCause)
	}
}

// applyAssessment records a and escalates when it passes the confidence
// threshold. Assessments never lower the level.
func (e *Engine) applyAssessment(ctx context.Context, a threat.Assessment) {
	a = e.history.Record(a)
	e.threatScore = risk.ThreatScore(e.history.Recent(risk.ThreatWindow))
	if !e.history.Admit(a) {
		return
	}
	if a.Level > e.state.ThreatLevel {
		reason := a.Description
		if reason == "" {
			reason = fmt.Sprintf("assessment %s", a.ID)
		}
		e.state.Escalate(a.Level, reason)
		logging.FromContext(ctx).Warn("threat escalated",
			"level", e.state.ThreatLevel, "confidence", a.Confidence, "types", a.Types)
	}
	if a.Level > threat.Green {
		if s := a.Situation(); s != "" {
			e.situation = s
		}
	}
}

// dispatchDeterrence commands the deterrence controller when the level or
// situation changed since the last successful dispatch.
func (e *Engine) dispatchDeterrence(ctx context.Context) {
	if e.deter == nil {
		return
	}
	level := e.state.ThreatLevel
	if e.dispatched && level == e.lastLevel && e.situation == e.lastSituation {
		return
	}
	err := e.deter.Activate(ctx, level, e.situation)
	e.dispatched = err == nil
	e.lastLevel = level
	e.lastSituation = e.situation
	e.state.Subsystems["deterrence"] = level > threat.Green
	if err != nil {
		e.throttle.Warn(ctx, "deterrence-actuator", "deterrence actuator failure", "err", err)
	}
}

func (e *Engine) respondToFire(ctx context.Context) {
	if e.fire == nil {
		return
	}
	sev, err := e.fire.MonitorAndRespond(ctx)
	if err != nil {
		e.throttle.Warn(ctx, "fire-not-ready", "fire suppression could not respond", "severity", sev, "err", err)
	}
	e.syncFireEvents()
	fs := e.fire.State()
	e.state.Health.FireSuppressionReady = e.fire.Ready()
	e.state.Subsystems["fire_suppression"] = fs.DischargeActive
}

// syncFireEvents copies fire events that matter to the mission log.
func (e *Engine) syncFireEvents() {
	if e.fire == nil {
		return
	}
	evs, next := e.fire.EventsSince(e.fireMark)
	e.fireMark = next
	for _, ev := range evs {
		var t state.EventType
		switch ev.Type {
		case firesuppression.FireSuppressed:
			t = state.FireSuppressed
		case firesuppression.SystemActivated, firesuppression.ManualOverride:
			t = state.SubsystemActivated
		default:
			continue
		}
		e.state.LogEvent(t, "Fire suppression: "+ev.Description(),
			fmt.Sprintf("Temperature %.1fC, smoke %.2f, severity %s", ev.Temperature, ev.Smoke, ev.Severity))
	}
}

// unlockAndPublish releases mu and hands new mission events, plus a status
// row when withStatus is set, to the writers. mu must be held.
func (e *Engine) unlockAndPublish(ctx context.Context, withStatus bool) {
	var rows []telemetry.EventRow
	if e.events != nil {
		for _, ev := range e.state.EventsSince(e.published) {
			rows = append(rows, telemetry.EventRowFrom(e.cfg.ClusterID, e.state.ID, ev))
		}
	}
	e.published = e.state.TotalEvents()

	var status *telemetry.StatusRow
	if withStatus && e.status != nil {
		row := e.statusLocked().Row(e.cfg.ClusterID)
		status = &row
	}

	e.publishMu.Lock()
	e.mu.Unlock()
	defer e.publishMu.Unlock()

	if len(rows) > 0 {
		if err := telemetry.WriteEvents(e.events, rows); err != nil {
			e.throttle.Warn(ctx, "event-writer", "event write failed", "err", err)
		}
	}
	if status != nil {
		if err := e.status.WriteStatus(*status); err != nil {
			e.throttle.Warn(ctx, "status-writer", "status write failed", "err", err)
		}
	}
}

// deterrenceState returns the controller state or the zero state when the
// engine runs without deterrence.
func (e *Engine) deterrenceState() deterrence.State {
	if e.deter == nil {
		return deterrence.State{}
	}
	return e.deter.State()
}
