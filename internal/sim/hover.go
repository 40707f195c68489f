package sim

import (
	"context"
	"math"
	"time"

	"dark-phoenix/internal/clock"
	"dark-phoenix/internal/geo"
)

const metersPerDegreeLat = 111320.0

// Hover keeps the unit circling its protectee at a fixed radius.
type Hover struct {
	center geo.Position
	radius float64
	period time.Duration
	start  time.Time
	clock  clock.Clock
}

// NewHover circles center at radiusM meters, once per period.
func NewHover(center geo.Position, radiusM float64, period time.Duration, clk clock.Clock) *Hover {
	if clk == nil {
		clk = clock.Real{}
	}
	if period <= 0 {
		period = time.Minute
	}
	return &Hover{center: center, radius: radiusM, period: period, start: clk.Now(), clock: clk}
}

// Position implements guardian.PositionSource.
func (h *Hover) Position(context.Context) (geo.Position, error) {
	now := h.clock.Now()
	frac := float64(now.Sub(h.start)%h.period) / float64(h.period)
	theta := 2 * math.Pi * frac
	dLat := h.radius * math.Cos(theta) / metersPerDegreeLat
	dLon := h.radius * math.Sin(theta) / (metersPerDegreeLat * math.Cos(h.center.Lat*math.Pi/180))
	return geo.Position{
		Lat:       h.center.Lat + dLat,
		Lon:       h.center.Lon + dLon,
		Alt:       h.center.Alt,
		Timestamp: now.UTC(),
	}, nil
}
