package deterrence

import (
	"maps"

	"dark-phoenix/internal/threat"
)

// Ceremony keys understood by Catalog.Ceremony.
const (
	CeremonyActivation = "activation"
	CeremonyVictory    = "victory"
	CeremonyRetreat    = "retreat"
)

// Catalog selects voice messages. Messages are keyed by level and then by
// situation; the empty situation holds the level's default.
type Catalog struct {
	Messages   map[threat.Level]map[string]string
	Ceremonies map[string]string
}

// DefaultCatalog returns the built-in message set.
func DefaultCatalog() Catalog {
	return Catalog{
		Messages: map[threat.Level]map[string]string{
			threat.Green: {
				"": "Guardian protocols active. Area under protection.",
			},
			threat.Yellow: {
				"":          "Dark Phoenix monitoring. Please proceed with caution.",
				"anomaly":   "Anomaly detected. Please maintain calm behavior.",
				"proximity": "You are entering a protected zone. Please identify yourself.",
			},
			threat.Orange: {
				"":             "Warning: Threat level elevated. You are being recorded. Authorities have been notified.",
				"aggression":   "Aggressive behavior detected. Cease immediately or authorities will be contacted.",
				"weapon":       "Weapon detected. Drop the weapon and step back immediately.",
				"group_threat": "Multiple aggressors detected. Disperse immediately or law enforcement will be summoned.",
			},
			threat.Red: {
				"":                "HIGH THREAT CONFIRMED. ALL DETERRENCE SYSTEMS ACTIVE. SURRENDER IMMEDIATELY.",
				"imminent_danger": "IMMINENT DANGER DETECTED. EMERGENCY SERVICES CONTACTED. RETREAT IMMEDIATELY.",
				"weapon":          "WEAPON DRAWN. DROP WEAPON NOW. POLICE EN ROUTE. YOU ARE BEING RECORDED.",
				"aggression":      "PHYSICAL ATTACK IN PROGRESS. MEDICAL AND POLICE ASSISTANCE REQUESTED.",
			},
			threat.Omega: {
				"": "OMEGA PROTOCOL ACTIVATED. DARK PHOENIX RISING. MAXIMUM PROTECTION AUTHORIZED. SURRENDER OR FACE CONSEQUENCES.",
			},
		},
		Ceremonies: map[string]string{
			"":                 "Dark Phoenix stands eternal vigil. None shall harm the protected.",
			CeremonyActivation: "From the ashes of danger, the Dark Phoenix rises to protect the innocent.",
			CeremonyVictory:    "The Phoenix has prevailed. Peace is restored. Guardian watch continues.",
			CeremonyRetreat:    "Threat neutralized. The Phoenix returns to the shadows, ever watchful.",
		},
	}
}

// Merge returns a copy of c with every entry of o laid over it.
func (c Catalog) Merge(o Catalog) Catalog {
	out := Catalog{
		Messages:   make(map[threat.Level]map[string]string, len(c.Messages)),
		Ceremonies: maps.Clone(c.Ceremonies),
	}
	if out.Ceremonies == nil {
		out.Ceremonies = make(map[string]string)
	}
	for l, m := range c.Messages {
		out.Messages[l] = maps.Clone(m)
	}
	for l, m := range o.Messages {
		if out.Messages[l] == nil {
			out.Messages[l] = make(map[string]string, len(m))
		}
		maps.Copy(out.Messages[l], m)
	}
	maps.Copy(out.Ceremonies, o.Ceremonies)
	return out
}

// Message picks the text for level and situation, falling back to the
// level's default for unknown situations.
func (c Catalog) Message(level threat.Level, situation string) string {
	m := c.Messages[level]
	if msg, ok := m[situation]; ok {
		return msg
	}
	return m[""]
}

// Ceremony returns the announcement for event or the default one.
func (c Catalog) Ceremony(event string) string {
	if msg, ok := c.Ceremonies[event]; ok {
		return msg
	}
	return c.Ceremonies[""]
}
