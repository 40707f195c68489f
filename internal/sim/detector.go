package sim

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"dark-phoenix/internal/clock"
	"dark-phoenix/internal/geo"
	"dark-phoenix/internal/logging"
	"dark-phoenix/internal/scenario"
	"dark-phoenix/internal/threat"
)

const (
	// anomalyPeriod and anomalyWindow place a short burst of erratic
	// movement at the start of every five minute period.
	anomalyPeriod = 300
	anomalyWindow = 5

	nominalDescription = "All systems nominal - no threats detected"
	anomalyDescription = "Unusual movement pattern detected - monitoring"
)

// Detector is a simulated threat detector. Without a scenario cue it reports
// a nominal assessment, except for a brief yellow anomaly every five
// minutes whose confidence equals the detector sensitivity.
type Detector struct {
	mu          sync.Mutex
	clock       clock.Clock
	position    *Hover
	cue         *scenario.ThreatCue
	sensitivity float64
}

// NewDetector returns a detector reporting positions relative to pos.
func NewDetector(clk clock.Clock, pos *Hover) *Detector {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Detector{clock: clk, position: pos, sensitivity: 0.7}
}

// SetCue makes the detector report c until replaced. A nil cue restores
// the nominal behaviour.
func (d *Detector) SetCue(c *scenario.ThreatCue) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cue = c
}

// SetSensitivity implements guardian.SensitivityAdjuster. Values are
// clamped to [0, 1].
func (d *Detector) SetSensitivity(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sensitivity = min(1, max(0, v))
}

// Sensitivity returns the last value set.
func (d *Detector) Sensitivity() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sensitivity
}

func (d *Detector) Assess(ctx context.Context) (*threat.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	cue, sensitivity := d.cue, d.sensitivity
	d.mu.Unlock()

	now := d.clock.Now().UTC()
	if cue != nil {
		var unit geo.Position
		if d.position != nil {
			unit, _ = d.position.Position(ctx)
		}
		a, err := cue.Assessment(now, unit)
		if err != nil {
			return nil, err
		}
		logging.FromContext(ctx).Debug("scripted assessment", "level", a.Level, "confidence", a.Confidence)
		return &a, nil
	}

	a := &threat.Assessment{
		ID:                 uuid.NewString(),
		Timestamp:          now,
		Level:              threat.Green,
		Confidence:         0.95,
		Description:        nominalDescription,
		RecommendedActions: []string{"Continue passive monitoring"},
	}
	if now.Unix()%anomalyPeriod < anomalyWindow {
		a.Level = threat.Yellow
		a.Confidence = sensitivity
		a.Types = []threat.Type{threat.ErraticBehavior}
		a.Description = anomalyDescription
		a.RecommendedActions = []string{"Increase monitoring sensitivity"}
	}
	return a, nil
}
