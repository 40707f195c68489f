package threat

import (
	"fmt"
	"strings"
)

// Level is the ordinal threat classification. Comparisons use the ordinal.
type Level int

const (
	Green Level = iota
	Yellow
	Orange
	Red
	Omega
)

// Levels lists every level in ascending order.
var Levels = []Level{Green, Yellow, Orange, Red, Omega}

var levelInfo = [...]struct {
	name        string
	description string
}{
	Green:  {"GREEN", "All systems nominal. Guardian mode active."},
	Yellow: {"YELLOW", "Anomaly detected. Heightened awareness engaged."},
	Orange: {"ORANGE", "Moderate threat identified. Defensive protocols online."},
	Red:    {"RED", "High threat confirmed. All deterrence systems activated."},
	Omega:  {"OMEGA", "Critical threat. Dark Phoenix rising. Maximum protection authorized."},
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool { return l >= Green && l <= Omega }

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelInfo[l].name
}

// Description returns the canonical description of the level.
func (l Level) Description() string {
	if !l.Valid() {
		return ""
	}
	return levelInfo[l].description
}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, l := range Levels {
		if levelInfo[l].name == name {
			return l, nil
		}
	}
	return Green, fmt.Errorf("unknown threat level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid threat level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
