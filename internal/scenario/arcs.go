package scenario

// BuiltIn returns predefined drills.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"intruder": {
			Name:        "Intruder",
			Description: "A stranger loiters near the protected person, closes in and draws a weapon before fleeing.",
			Phases: []Phase{
				{
					Name:        "setup",
					Description: "Quiet street, unit on passive watch.",
					Triggers:    []Trigger{{Event: EventTimeElapsed, Value: 10, Next: "escalation"}},
				},
				{
					Name:        "escalation",
					Description: "Subject circles at a distance.",
					Threat: &ThreatCue{
						Level: "YELLOW", Confidence: 0.7, Types: []string{"erratic_behavior"},
						Description: "Unusual movement pattern detected - monitoring", DistanceM: 40,
					},
					Triggers: []Trigger{{Event: EventTimeElapsed, Value: 15, Next: "climax"}},
				},
				{
					Name:        "climax",
					Description: "Subject closes in with a drawn weapon.",
					Threat: &ThreatCue{
						Level: "RED", Confidence: 0.9, Types: []string{"weapon_detected", "hostile_intent"},
						Description: "Weapon drawn at close range", DistanceM: 4,
					},
					Triggers: []Trigger{{Event: EventTimeElapsed, Value: 20, Next: "resolution"}},
				},
				{
					Name:        "resolution",
					Description: "Subject flees; the scene is quiet again.",
				},
			},
		},
		"wildfire": {
			Name:        "Wildfire",
			Description: "Smoke drifts in, then a grass fire reaches the unit's position.",
			Phases: []Phase{
				{
					Name:        "setup",
					Description: "Clear air, ambient temperature.",
					Fire:        &FireCue{Temperature: 22, Smoke: 0},
					Triggers:    []Trigger{{Event: EventTimeElapsed, Value: 10, Next: "escalation"}},
				},
				{
					Name:        "escalation",
					Description: "Smoke thickens.",
					Fire:        &FireCue{Temperature: 35, Smoke: 0.8},
					Threat: &ThreatCue{
						Level: "YELLOW", Confidence: 0.8, Types: []string{"environmental_hazard"},
						Description: "Smoke detected upwind",
					},
					Triggers: []Trigger{{Event: EventTimeElapsed, Value: 10, Next: "climax"}},
				},
				{
					Name:        "climax",
					Description: "Flames reach the perimeter.",
					Fire:        &FireCue{Temperature: 75, Smoke: 0.9},
					Threat: &ThreatCue{
						Level: "ORANGE", Confidence: 0.9, Types: []string{"environmental_hazard"},
						Description: "Open flame at the perimeter",
					},
					Triggers: []Trigger{{Event: EventFireSuppressed, Value: 1, Next: "resolution"}},
				},
				{
					Name:        "resolution",
					Description: "Fire knocked down; smoke clears.",
					Fire:        &FireCue{Temperature: 25, Smoke: 0.05},
				},
			},
		},
		"mob": {
			Name:        "Mob",
			Description: "A crowd gathers, turns hostile and attacks.",
			Phases: []Phase{
				{
					Name:        "setup",
					Description: "Crowd forming nearby.",
					Threat: &ThreatCue{
						Level: "YELLOW", Confidence: 0.65, Types: []string{"group_threat"},
						Description: "Crowd gathering", DistanceM: 30,
					},
					Triggers: []Trigger{{Event: EventTimeElapsed, Value: 10, Next: "escalation"}},
				},
				{
					Name:        "escalation",
					Description: "Crowd turns hostile and advances.",
					Threat: &ThreatCue{
						Level: "ORANGE", Confidence: 0.8, Types: []string{"group_threat", "hostile_intent"},
						Description: "Hostile group advancing", DistanceM: 12,
					},
					Triggers: []Trigger{{Event: EventThreatLevel, Value: 2, Next: "climax"}},
				},
				{
					Name:        "climax",
					Description: "Physical attack on the protected person.",
					Threat: &ThreatCue{
						Level: "OMEGA", Confidence: 0.95, Types: []string{"physical_aggression", "group_threat"},
						Description: "Life-threatening group assault", DistanceM: 2,
					},
					Triggers: []Trigger{{Event: EventTimeElapsed, Value: 30, Next: "resolution"}},
				},
				{
					Name:        "resolution",
					Description: "Crowd disperses.",
				},
			},
		},
	}
}
