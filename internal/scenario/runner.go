package scenario

import (
	"sync"
	"time"
)

// Runner tracks the active phase of a scenario.
type Runner struct {
	mu        sync.Mutex
	sc        *Scenario
	current   string
	enteredAt time.Time
	now       func() time.Time
}

// NewRunner starts sc at its first phase.
func NewRunner(sc *Scenario, now func() time.Time) *Runner {
	if now == nil {
		now = time.Now
	}
	return &Runner{sc: sc, current: sc.Phases[0].Name, enteredAt: now(), now: now}
}

// Current returns the active phase.
func (r *Runner) Current() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, _ := r.sc.Phase(r.current)
	return p
}

// Observe feeds ev to the active phase and reports whether it advanced.
func (r *Runner) Observe(ev Event) (Phase, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, ok := r.sc.NextPhase(r.current, ev)
	if ok {
		r.current = next
		r.enteredAt = r.now()
	}
	p, _ := r.sc.Phase(r.current)
	return p, ok
}

// Tick observes the time spent in the active phase.
func (r *Runner) Tick() (Phase, bool) {
	r.mu.Lock()
	elapsed := int(r.now().Sub(r.enteredAt) / time.Second)
	r.mu.Unlock()
	return r.Observe(Event{Type: EventTimeElapsed, Value: elapsed})
}
