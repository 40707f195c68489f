package deterrence

import (
	"fmt"
	"strings"
)

// Pattern is a strobe light pattern.
type Pattern int

const (
	Off Pattern = iota
	Pulse
	Alert
	Warning
	Emergency
	Phoenix
)

var patternInfo = [...]struct {
	name        string
	frequency   float64
	description string
}{
	Off:       {"off", 0, "Strobes disabled"},
	Pulse:     {"pulse", 1, "Gentle awareness pulse"},
	Alert:     {"alert", 4, "Alert attention strobe"},
	Warning:   {"warning", 8, "Warning deterrence flash"},
	Emergency: {"emergency", 15, "Emergency disorientation strobe"},
	Phoenix:   {"phoenix", 3, "Phoenix rising ceremonial pattern"},
}

func (p Pattern) valid() bool { return p >= Off && p <= Phoenix }

func (p Pattern) String() string {
	if !p.valid() {
		return fmt.Sprintf("pattern(%d)", int(p))
	}
	return patternInfo[p].name
}

// Description is a short human description of the pattern.
func (p Pattern) Description() string {
	if !p.valid() {
		return ""
	}
	return patternInfo[p].description
}

// DefaultFrequency is the built-in flash rate in Hz.
func (p Pattern) DefaultFrequency() float64 {
	if !p.valid() {
		return 0
	}
	return patternInfo[p].frequency
}

// ParsePattern accepts the lower-case pattern name.
func ParsePattern(s string) (Pattern, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p := range patternInfo {
		if patternInfo[p].name == name {
			return Pattern(p), nil
		}
	}
	return Off, fmt.Errorf("unknown strobe pattern %q", s)
}

func (p Pattern) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Pattern) UnmarshalText(b []byte) error {
	v, err := ParsePattern(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
