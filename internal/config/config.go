// Package config loads the protection unit configuration: YAML validated
// against a CUE schema, defaults for every field, environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"dark-phoenix/internal/deterrence"
	"dark-phoenix/internal/firesuppression"
	"dark-phoenix/internal/geo"
	"dark-phoenix/internal/guardian"
	"dark-phoenix/internal/state"
	"dark-phoenix/internal/threat"
)

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Unit identifies the protection unit.
type Unit struct {
	Name              string `yaml:"name"`
	ClusterID         string `yaml:"cluster_id"`
	AllowDeescalation bool   `yaml:"allow_deescalation"`
}

// Scheduler controls the protection cycle.
type Scheduler struct {
	TickInterval     Duration `yaml:"tick_interval"`
	DetectionTimeout Duration `yaml:"detection_timeout"`
	StatusEvery      int      `yaml:"status_every"`
	WarnEvery        Duration `yaml:"warn_every"`
}

// Health holds the battery policy.
type Health struct {
	BatteryDrain float64 `yaml:"battery_drain"`
	LowBattery   float64 `yaml:"low_battery"`
}

// Deterrence tunes the deterrence controller.
type Deterrence struct {
	MaxSirenVolume    int                          `yaml:"max_siren_volume"`
	VoiceVolume       int                          `yaml:"voice_volume"`
	EscalationDelay   Duration                     `yaml:"escalation_delay"`
	StrobeFrequencies map[string]float64           `yaml:"strobe_frequencies"`
	Messages          map[string]map[string]string `yaml:"messages"`
	Ceremonies        map[string]string            `yaml:"ceremonies"`
}

// FireSuppression tunes the fire-suppression controller.
type FireSuppression struct {
	AutoActivationTemp  float64  `yaml:"auto_activation_temp"`
	SmokeSensitivity    float64  `yaml:"smoke_sensitivity"`
	MaxDischarge        Duration `yaml:"max_discharge"`
	Cooldown            Duration `yaml:"cooldown"`
	AllowManualOverride bool     `yaml:"allow_manual_override"`
	MinPressure         float64  `yaml:"min_pressure"`
	SettleDelay         Duration `yaml:"settle_delay"`
	DrainPerSecond      float64  `yaml:"drain_per_second"`
}

// Detection sets the threat filter.
type Detection struct {
	Sensitivity         float64  `yaml:"sensitivity"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`
	EnabledTypes        []string `yaml:"enabled_types"`
}

// History bounds the retained logs.
type History struct {
	MissionLog  int `yaml:"mission_log"`
	Assessments int `yaml:"assessments"`
	FireEvents  int `yaml:"fire_events"`
}

// Simulation configures the simulated sensors and flight.
type Simulation struct {
	HomeLat      float64  `yaml:"home_lat"`
	HomeLon      float64  `yaml:"home_lon"`
	HomeAlt      float64  `yaml:"home_alt"`
	OrbitRadiusM float64  `yaml:"orbit_radius_m"`
	OrbitPeriod  Duration `yaml:"orbit_period"`
	AmbientTemp  float64  `yaml:"ambient_temp"`
	SensorNoise  float64  `yaml:"sensor_noise"`
	Dropout      float64  `yaml:"dropout"`
	Seed         int64    `yaml:"seed"`
}

// Config is the root configuration.
type Config struct {
	Unit            Unit            `yaml:"unit"`
	Scheduler       Scheduler       `yaml:"scheduler"`
	Health          Health          `yaml:"health"`
	Deterrence      Deterrence      `yaml:"deterrence"`
	FireSuppression FireSuppression `yaml:"fire_suppression"`
	Detection       Detection       `yaml:"detection"`
	History         History         `yaml:"history"`
	Simulation      Simulation      `yaml:"simulation"`
}

// Default returns the stock configuration.
func Default() *Config {
	var c Config
	c.applyDefaults(nil)
	return &c
}

// Load reads configPath, validates it against the CUE schema at schemaPath
// (skipped when empty) and fills unset fields with defaults.
func Load(configPath, schemaPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if schemaPath != "" {
		if err := ValidateWithCue(configPath, schemaPath); err != nil {
			return nil, err
		}
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults. Booleans that default to true
// stay true unless the document sets them.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults(raw)
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.DeterrenceConfig(); err != nil {
		return nil, err
	}
	if _, err := c.EnabledTypes(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults(raw map[string]any) {
	g := guardian.DefaultConfig()
	d := deterrence.DefaultConfig()
	f := firesuppression.DefaultConfig()
	set := defaulter{raw: raw}

	setString(&c.Unit.Name, g.Name)
	setString(&c.Unit.ClusterID, "phoenix-01")

	sec := "scheduler"
	setDuration(set, sec, "tick_interval", &c.Scheduler.TickInterval, g.TickInterval)
	setDuration(set, sec, "detection_timeout", &c.Scheduler.DetectionTimeout, g.DetectionTimeout)
	setDuration(set, sec, "warn_every", &c.Scheduler.WarnEvery, 30*time.Second)
	setNum(set, sec, "status_every", &c.Scheduler.StatusEvery, g.StatusEvery)

	sec = "health"
	setNum(set, sec, "battery_drain", &c.Health.BatteryDrain, g.BatteryDrain)
	setNum(set, sec, "low_battery", &c.Health.LowBattery, g.LowBattery)

	sec = "deterrence"
	setNum(set, sec, "max_siren_volume", &c.Deterrence.MaxSirenVolume, d.MaxSirenVolume)
	setNum(set, sec, "voice_volume", &c.Deterrence.VoiceVolume, d.VoiceVolume)
	setDuration(set, sec, "escalation_delay", &c.Deterrence.EscalationDelay, d.EscalationDelay)

	sec = "fire_suppression"
	fs := &c.FireSuppression
	setNum(set, sec, "auto_activation_temp", &fs.AutoActivationTemp, f.AutoActivationTemp)
	setNum(set, sec, "smoke_sensitivity", &fs.SmokeSensitivity, f.SmokeSensitivity)
	setDuration(set, sec, "max_discharge", &fs.MaxDischarge, f.MaxDischarge)
	setDuration(set, sec, "cooldown", &fs.Cooldown, f.Cooldown)
	setNum(set, sec, "min_pressure", &fs.MinPressure, f.MinPressure)
	setDuration(set, sec, "settle_delay", &fs.SettleDelay, f.SettleDelay)
	setNum(set, sec, "drain_per_second", &fs.DrainPerSecond, f.DrainPerSecond)
	if !set.has(sec, "allow_manual_override") {
		fs.AllowManualOverride = f.AllowManualOverride
	}

	sec = "detection"
	setNum(set, sec, "sensitivity", &c.Detection.Sensitivity, g.Sensitivity)
	setNum(set, sec, "confidence_threshold", &c.Detection.ConfidenceThreshold, g.ConfidenceThreshold)
	if !set.has(sec, "enabled_types") {
		for _, t := range threat.DefaultEnabledTypes {
			c.Detection.EnabledTypes = append(c.Detection.EnabledTypes, string(t))
		}
	}

	sec = "history"
	setNum(set, sec, "mission_log", &c.History.MissionLog, state.DefaultLogCapacity)
	setNum(set, sec, "assessments", &c.History.Assessments, threat.DefaultHistorySize)
	setNum(set, sec, "fire_events", &c.History.FireEvents, f.HistorySize)

	sec = "simulation"
	sim := &c.Simulation
	if !set.has(sec, "home_lat") && !set.has(sec, "home_lon") {
		sim.HomeLat, sim.HomeLon = 47.3769, 8.5417
	}
	setNum(set, sec, "home_alt", &sim.HomeAlt, 15)
	setNum(set, sec, "orbit_radius_m", &sim.OrbitRadiusM, 5)
	setDuration(set, sec, "orbit_period", &sim.OrbitPeriod, time.Minute)
	setNum(set, sec, "ambient_temp", &sim.AmbientTemp, 22)
	setNum(set, sec, "sensor_noise", &sim.SensorNoise, 0.2)
	setNum(set, sec, "seed", &sim.Seed, 1)
}

// validate rejects values that cannot drive the protection cycle. Zero is a
// legal setting for every other field.
func (c *Config) validate() error {
	var errs []error
	if c.Scheduler.TickInterval <= 0 {
		errs = append(errs, errors.New("scheduler.tick_interval must be positive"))
	}
	if c.Scheduler.DetectionTimeout <= 0 {
		errs = append(errs, errors.New("scheduler.detection_timeout must be positive"))
	}
	if c.Scheduler.StatusEvery < 1 {
		errs = append(errs, errors.New("scheduler.status_every must be at least 1"))
	}
	for name, n := range map[string]int{
		"history.mission_log": c.History.MissionLog,
		"history.assessments": c.History.Assessments,
		"history.fire_events": c.History.FireEvents,
	} {
		if n < 1 {
			errs = append(errs, fmt.Errorf("%s must be at least 1", name))
		}
	}
	return errors.Join(errs...)
}

// GuardianConfig returns the scheduler policy.
func (c *Config) GuardianConfig() guardian.Config {
	types, _ := c.EnabledTypes()
	return guardian.Config{
		Name:                c.Unit.Name,
		ClusterID:           c.Unit.ClusterID,
		TickInterval:        c.Scheduler.TickInterval.Std(),
		DetectionTimeout:    c.Scheduler.DetectionTimeout.Std(),
		BatteryDrain:        c.Health.BatteryDrain,
		LowBattery:          c.Health.LowBattery,
		StatusEvery:         c.Scheduler.StatusEvery,
		AllowDeescalation:   c.Unit.AllowDeescalation,
		LogCapacity:         c.History.MissionLog,
		HistorySize:         c.History.Assessments,
		Sensitivity:         c.Detection.Sensitivity,
		ConfidenceThreshold: c.Detection.ConfidenceThreshold,
		EnabledTypes:        types,
	}
}

// EnabledTypes parses the enabled threat types.
func (c *Config) EnabledTypes() ([]threat.Type, error) {
	out := make([]threat.Type, 0, len(c.Detection.EnabledTypes))
	for _, s := range c.Detection.EnabledTypes {
		t, err := threat.ParseType(s)
		if err != nil {
			return nil, fmt.Errorf("detection.enabled_types: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// DeterrenceConfig returns the deterrence tuning with configured strobe
// frequencies and messages laid over the built-in ones.
func (c *Config) DeterrenceConfig() (deterrence.Config, error) {
	out := deterrence.DefaultConfig()
	out.MaxSirenVolume = c.Deterrence.MaxSirenVolume
	out.VoiceVolume = c.Deterrence.VoiceVolume
	out.EscalationDelay = c.Deterrence.EscalationDelay.Std()
	for name, hz := range c.Deterrence.StrobeFrequencies {
		p, err := deterrence.ParsePattern(name)
		if err != nil {
			return deterrence.Config{}, fmt.Errorf("deterrence.strobe_frequencies: %w", err)
		}
		out.StrobeFrequencies[p] = hz
	}
	overlay := deterrence.Catalog{
		Messages:   make(map[threat.Level]map[string]string, len(c.Deterrence.Messages)),
		Ceremonies: c.Deterrence.Ceremonies,
	}
	for name, msgs := range c.Deterrence.Messages {
		l, err := threat.ParseLevel(name)
		if err != nil {
			return deterrence.Config{}, fmt.Errorf("deterrence.messages: %w", err)
		}
		overlay.Messages[l] = msgs
	}
	out.Catalog = out.Catalog.Merge(overlay)
	return out, nil
}

// FireConfig returns the fire-suppression policy.
func (c *Config) FireConfig() firesuppression.Config {
	fs := c.FireSuppression
	return firesuppression.Config{
		AutoActivationTemp:  fs.AutoActivationTemp,
		SmokeSensitivity:    fs.SmokeSensitivity,
		MaxDischarge:        fs.MaxDischarge.Std(),
		Cooldown:            fs.Cooldown.Std(),
		AllowManualOverride: fs.AllowManualOverride,
		MinPressure:         fs.MinPressure,
		SettleDelay:         fs.SettleDelay.Std(),
		DrainPerSecond:      fs.DrainPerSecond,
		HistorySize:         c.History.FireEvents,
	}
}

// Home returns the simulated home position.
func (c *Config) Home() geo.Position {
	return geo.Position{Lat: c.Simulation.HomeLat, Lon: c.Simulation.HomeLon, Alt: c.Simulation.HomeAlt}
}

func setString(p *string, def string) {
	if *p == "" {
		*p = def
	}
}

// defaulter reports which keys the YAML document set, so explicit zeros
// survive default filling.
type defaulter struct {
	raw map[string]any
}

func (d defaulter) has(section, key string) bool {
	return isSet(d.raw, section, key)
}

func setNum[T int | int64 | float64](d defaulter, section, key string, p *T, def T) {
	if !d.has(section, key) {
		*p = def
	}
}

func setDuration(d defaulter, section, key string, p *Duration, def time.Duration) {
	if !d.has(section, key) {
		*p = Duration(def)
	}
}

func isSet(raw map[string]any, section, key string) bool {
	s, ok := raw[section].(map[string]any)
	if !ok {
		return false
	}
	_, ok = s[key]
	return ok
}
