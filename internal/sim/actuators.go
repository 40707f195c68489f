package sim

import (
	"context"
	"sync"

	"dark-phoenix/internal/deterrence"
	"dark-phoenix/internal/firesuppression"
	"dark-phoenix/internal/logging"
)

// Actuators logs every command it receives and remembers the last state of
// each device. It implements the deterrence and nozzle interfaces.
type Actuators struct {
	mu          sync.Mutex
	sirenVolume int
	pattern     deterrence.Pattern
	strobeHz    float64
	message     string
	nozzle      firesuppression.NozzlePosition
	commands    int
}

// NewActuators returns idle actuators.
func NewActuators() *Actuators { return &Actuators{} }

// Siren returns the siren facet.
func (a *Actuators) Siren() deterrence.Siren { return siren{a} }

// Strobe returns the strobe facet.
func (a *Actuators) Strobe() deterrence.Strobe { return strobe{a} }

// Voice returns the voice facet.
func (a *Actuators) Voice() deterrence.Voice { return voice{a} }

// Nozzle returns the nozzle facet.
func (a *Actuators) Nozzle() firesuppression.Nozzle { return nozzle{a} }

// ActuatorState is what the devices are currently doing.
type ActuatorState struct {
	SirenVolume int
	Pattern     deterrence.Pattern
	StrobeHz    float64
	Message     string
	Nozzle      firesuppression.NozzlePosition
	Commands    int
}

// State returns a copy of the device states.
func (a *Actuators) State() ActuatorState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ActuatorState{
		SirenVolume: a.sirenVolume,
		Pattern:     a.pattern,
		StrobeHz:    a.strobeHz,
		Message:     a.message,
		Nozzle:      a.nozzle,
		Commands:    a.commands,
	}
}

func (a *Actuators) apply(f func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.commands++
	f()
}

type siren struct{ a *Actuators }

func (s siren) Activate(ctx context.Context, volume int) error {
	s.a.apply(func() { s.a.sirenVolume = volume })
	logging.FromContext(ctx).Debug("siren on", "volume", volume)
	return nil
}

func (s siren) Deactivate(ctx context.Context) error {
	s.a.apply(func() { s.a.sirenVolume = 0 })
	logging.FromContext(ctx).Debug("siren off")
	return nil
}

type strobe struct{ a *Actuators }

func (s strobe) SetPattern(ctx context.Context, p deterrence.Pattern, hz float64) error {
	s.a.apply(func() { s.a.pattern, s.a.strobeHz = p, hz })
	logging.FromContext(ctx).Debug("strobe pattern", "pattern", p, "hz", hz)
	return nil
}

type voice struct{ a *Actuators }

func (v voice) Speak(ctx context.Context, message string, volume int) error {
	v.a.apply(func() { v.a.message = message })
	logging.FromContext(ctx).Info("voice", "message", message, "volume", volume)
	return nil
}

func (v voice) Stop(ctx context.Context) error {
	v.a.apply(func() { v.a.message = "" })
	return nil
}

type nozzle struct{ a *Actuators }

func (n nozzle) Deploy(ctx context.Context, pos firesuppression.NozzlePosition) error {
	n.a.apply(func() { n.a.nozzle = pos })
	logging.FromContext(ctx).Info("nozzle deployed", "position", pos)
	return nil
}

func (n nozzle) Retract(ctx context.Context) error {
	n.a.apply(func() { n.a.nozzle = firesuppression.Retracted })
	logging.FromContext(ctx).Debug("nozzle retracted")
	return nil
}
