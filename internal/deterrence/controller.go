// Package deterrence drives the siren, strobe and voice actuators with a
// graduated profile per threat level.
package deterrence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dark-phoenix/internal/clock"
	"dark-phoenix/internal/logging"
	"dark-phoenix/internal/threat"
)

// ErrActuator wraps every actuator failure returned by the controller.
var ErrActuator = errors.New("deterrence actuator failure")

type Siren interface {
	Activate(ctx context.Context, volume int) error
	Deactivate(ctx context.Context) error
}

type Strobe interface {
	SetPattern(ctx context.Context, p Pattern, hz float64) error
}

type Voice interface {
	Speak(ctx context.Context, message string, volume int) error
	Stop(ctx context.Context) error
}

// Config holds the deterrence tuning values.
type Config struct {
	MaxSirenVolume    int
	VoiceVolume       int
	EscalationDelay   time.Duration
	StrobeFrequencies map[Pattern]float64
	Catalog           Catalog
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	freqs := make(map[Pattern]float64, len(patternInfo))
	for p := range patternInfo {
		freqs[Pattern(p)] = patternInfo[p].frequency
	}
	return Config{
		MaxSirenVolume:    85,
		VoiceVolume:       75,
		EscalationDelay:   2 * time.Second,
		StrobeFrequencies: freqs,
		Catalog:           DefaultCatalog(),
	}
}

type voiceLevel int

const (
	voiceOff voiceLevel = iota
	voiceHalf
	voiceFull
	voiceMax
)

// profile is the actuator setting for one threat level. Siren volume is
// MaxSirenVolume*sirenNum/sirenDen.
type profile struct {
	pattern    Pattern
	sirenNum   int
	sirenDen   int
	voice      voiceLevel
	ceremonial bool
}

var profiles = map[threat.Level]profile{
	threat.Green:  {pattern: Off, sirenNum: 0, sirenDen: 1, voice: voiceOff},
	threat.Yellow: {pattern: Pulse, sirenNum: 0, sirenDen: 1, voice: voiceHalf},
	threat.Orange: {pattern: Warning, sirenNum: 1, sirenDen: 3, voice: voiceFull},
	threat.Red:    {pattern: Emergency, sirenNum: 2, sirenDen: 3, voice: voiceFull},
	threat.Omega:  {pattern: Phoenix, sirenNum: 1, sirenDen: 1, voice: voiceMax, ceremonial: true},
}

// State is a copy of the controller's actuator state.
type State struct {
	SirenActive     bool      `json:"siren_active"`
	SirenVolume     int       `json:"siren_volume"`
	StrobeActive    bool      `json:"strobe_active"`
	StrobePattern   Pattern   `json:"strobe_pattern"`
	VoiceActive     bool      `json:"voice_active"`
	CurrentMessage  string    `json:"current_message,omitempty"`
	LastActivation  time.Time `json:"last_activation"`
	ActivationCount int       `json:"activation_count"`
}

// Controller maps threat levels onto actuator commands. It is safe for
// concurrent use; the pending Omega announcement runs on its own timer.
type Controller struct {
	mu       sync.Mutex
	cfg      Config
	siren    Siren
	strobe   Strobe
	voice    Voice
	clock    clock.Clock
	state    State
	ceremony clock.Timer
}

// NewController returns a controller with every actuator off.
func NewController(cfg Config, siren Siren, strobe Strobe, voice Voice, clk clock.Clock) *Controller {
	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.Catalog.Messages == nil {
		cfg.Catalog = DefaultCatalog()
	}
	return &Controller{cfg: cfg, siren: siren, strobe: strobe, voice: voice, clock: clk}
}

// Activate applies the profile for level. Every call is counted, including
// Green, which switches every actuator off. Actuator failures are returned
// wrapped in ErrActuator after the remaining commands have been issued.
func (c *Controller) Activate(ctx context.Context, level threat.Level, situation string) error {
	p, ok := profiles[level]
	if !ok {
		return fmt.Errorf("no deterrence profile for %s", level)
	}
	log := logging.FromContext(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.LastActivation = c.clock.Now().UTC()
	c.state.ActivationCount++
	c.cancelCeremony()

	if level == threat.Green {
		err := c.deactivateLocked(ctx)
		log.Info("deterrence deactivated", "threat_level", level)
		return err
	}

	var errs []error
	hz := c.frequency(p.pattern)
	if err := c.strobe.SetPattern(ctx, p.pattern, hz); err != nil {
		errs = append(errs, fmt.Errorf("%w: strobe: %w", ErrActuator, err))
	}
	c.state.StrobeActive = p.pattern != Off
	c.state.StrobePattern = p.pattern

	vol := c.cfg.MaxSirenVolume * p.sirenNum / p.sirenDen
	if vol > 0 {
		if err := c.siren.Activate(ctx, vol); err != nil {
			errs = append(errs, fmt.Errorf("%w: siren: %w", ErrActuator, err))
		}
		c.state.SirenActive = true
	} else if c.state.SirenActive {
		if err := c.siren.Deactivate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: siren: %w", ErrActuator, err))
		}
		c.state.SirenActive = false
	}
	c.state.SirenVolume = vol

	msg := c.cfg.Catalog.Message(level, situation)
	if err := c.voice.Speak(ctx, msg, c.voiceVolume(p.voice)); err != nil {
		errs = append(errs, fmt.Errorf("%w: voice: %w", ErrActuator, err))
	}
	c.state.VoiceActive = true
	c.state.CurrentMessage = msg

	if p.ceremonial {
		c.scheduleCeremony(ctx)
	}

	log.Info("deterrence activated",
		"threat_level", level,
		"situation", situation,
		"strobe", p.pattern,
		"strobe_hz", hz,
		"siren_volume", vol,
	)
	return errors.Join(errs...)
}

// Deactivate switches every actuator off without counting an activation.
func (c *Controller) Deactivate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelCeremony()
	return c.deactivateLocked(ctx)
}

// Announce speaks a ceremonial announcement from the catalog at full volume.
// It cancels a pending Omega announcement and is not counted as an activation.
func (c *Controller) Announce(ctx context.Context, event string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelCeremony()
	msg := c.cfg.Catalog.Ceremony(event)
	if err := c.voice.Speak(ctx, msg, 100); err != nil {
		return fmt.Errorf("%w: voice: %w", ErrActuator, err)
	}
	c.state.VoiceActive = true
	c.state.CurrentMessage = msg
	return nil
}

// State returns a copy of the current actuator state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SelfTest exercises each actuator at low intensity and leaves all of them
// off. It does not count as an activation.
func (c *Controller) SelfTest(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	log := logging.FromContext(ctx)
	log.Info("deterrence self-test started")

	var errs []error
	if err := c.voice.Speak(ctx, "System test initiated", 50); err != nil {
		errs = append(errs, fmt.Errorf("%w: voice: %w", ErrActuator, err))
	}
	if err := c.strobe.SetPattern(ctx, Alert, c.frequency(Alert)); err != nil {
		errs = append(errs, fmt.Errorf("%w: strobe: %w", ErrActuator, err))
	}
	if err := c.siren.Activate(ctx, 20); err != nil {
		errs = append(errs, fmt.Errorf("%w: siren: %w", ErrActuator, err))
	}
	c.cancelCeremony()
	if err := c.deactivateLocked(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := c.voice.Speak(ctx, "System test complete. All systems operational.", 50); err != nil {
		errs = append(errs, fmt.Errorf("%w: voice: %w", ErrActuator, err))
	}
	err := errors.Join(errs...)
	if err != nil {
		log.Warn("deterrence self-test failed", "err", err)
	} else {
		log.Info("deterrence self-test passed")
	}
	return err
}

func (c *Controller) deactivateLocked(ctx context.Context) error {
	var errs []error
	if err := c.siren.Deactivate(ctx); err != nil {
		errs = append(errs, fmt.Errorf("%w: siren: %w", ErrActuator, err))
	}
	if err := c.strobe.SetPattern(ctx, Off, 0); err != nil {
		errs = append(errs, fmt.Errorf("%w: strobe: %w", ErrActuator, err))
	}
	if err := c.voice.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("%w: voice: %w", ErrActuator, err))
	}
	c.state.SirenActive = false
	c.state.SirenVolume = 0
	c.state.StrobeActive = false
	c.state.StrobePattern = Off
	c.state.VoiceActive = false
	c.state.CurrentMessage = ""
	return errors.Join(errs...)
}

// scheduleCeremony queues the activation announcement after the escalation
// delay. The timer is dropped by any later Activate or Deactivate.
func (c *Controller) scheduleCeremony(ctx context.Context) {
	log := logging.FromContext(ctx)
	ctx = context.WithoutCancel(ctx)
	msg := c.cfg.Catalog.Ceremony(CeremonyActivation)
	var t clock.Timer
	t = c.clock.AfterFunc(c.cfg.EscalationDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.ceremony != t {
			return
		}
		c.ceremony = nil
		if err := c.voice.Speak(ctx, msg, 100); err != nil {
			log.Warn("ceremonial announcement failed", "err", err)
			return
		}
		c.state.CurrentMessage = msg
		log.Info("omega protocol fully deployed")
	})
	c.ceremony = t
}

func (c *Controller) cancelCeremony() {
	if c.ceremony != nil {
		c.ceremony.Stop()
		c.ceremony = nil
	}
}

func (c *Controller) frequency(p Pattern) float64 {
	if hz, ok := c.cfg.StrobeFrequencies[p]; ok {
		return hz
	}
	return p.DefaultFrequency()
}

func (c *Controller) voiceVolume(v voiceLevel) int {
	switch v {
	case voiceHalf:
		return c.cfg.VoiceVolume / 2
	case voiceFull:
		return c.cfg.VoiceVolume
	case voiceMax:
		return 100
	}
	return 0
}
