package threat

import (
	"time"

	"dark-phoenix/internal/geo"
)

// Assessment is one immutable threat evaluation produced by a detector.
type Assessment struct {
	ID                 string        `json:"id"`
	Timestamp          time.Time     `json:"ts"`
	Level              Level         `json:"threat_level"`
	Confidence         float64       `json:"confidence"`
	Types              []Type        `json:"threat_types"`
	Position           *geo.Position `json:"position,omitempty"`
	Description        string        `json:"description"`
	RecommendedActions []string      `json:"recommended_actions"`
	Evidence           Evidence      `json:"evidence"`
}

// Evidence bundles the optional observations behind an assessment.
type Evidence struct {
	Visual        *VisualEvidence        `json:"visual,omitempty"`
	Audio         *AudioEvidence         `json:"audio,omitempty"`
	Movement      *MovementEvidence      `json:"movement,omitempty"`
	Biometric     *BiometricEvidence     `json:"biometric,omitempty"`
	Environmental *EnvironmentalEvidence `json:"environmental,omitempty"`
}

type VisualEvidence struct {
	Objects            []ObjectDetection `json:"objects"`
	BodyLanguageScore  float64           `json:"body_language_score"`
	WeaponConfidence   float64           `json:"weapon_confidence"`
	CrowdDensity       int               `json:"crowd_density"`
	LightingConditions string            `json:"lighting_conditions"`
}

type ObjectDetection struct {
	ObjectType string     `json:"object_type"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"bounding_box"` // x, y, width, height
	Relevance  float64    `json:"threat_relevance"`
}

type AudioEvidence struct {
	VolumeLevel      float64  `json:"volume_level"`
	AggressionScore  float64  `json:"aggression_score"`
	KeywordMatches   []string `json:"keyword_matches"`
	VoiceStressLevel float64  `json:"voice_stress_level"`
	GunshotDetected  bool     `json:"gunshot_detected"`
	ScreamDetected   bool     `json:"scream_detected"`
}

type MovementEvidence struct {
	VelocityAnomaly     float64 `json:"velocity_anomaly"`
	DirectionChanges    int     `json:"direction_changes"`
	ProximityViolations int     `json:"proximity_violations"`
	PursuitBehavior     bool    `json:"pursuit_behavior"`
	EscapeAttempts      bool    `json:"escape_attempts"`
}

type BiometricEvidence struct {
	ElevatedHeartRate bool     `json:"elevated_heart_rate"`
	StressHormones    *float64 `json:"stress_hormones,omitempty"`
	BodyTemperature   *float64 `json:"body_temperature,omitempty"`
	BreathingPattern  string   `json:"breathing_pattern,omitempty"`
}

type EnvironmentalEvidence struct {
	TemperatureAnomaly *float64 `json:"temperature_anomaly,omitempty"`
	SmokeDetected      bool     `json:"smoke_detected"`
	ChemicalTraces     []string `json:"chemical_traces"`
	StructuralDamage   bool     `json:"structural_damage"`
	WeatherConditions  string   `json:"weather_conditions"`
}

// Situation returns the deterrence situation key implied by the assessment.
func (a Assessment) Situation() string { return SituationFor(a.Types) }
