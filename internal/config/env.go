package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env holds the environment overrides.
type Env struct {
	ClusterID    string        `env:"CLUSTER_ID"`
	Name         string        `env:"PHOENIX_NAME"`
	TickInterval time.Duration `env:"TICK_INTERVAL"`

	GreptimeEndpoint string        `env:"GREPTIMEDB_ENDPOINT"`
	GreptimePort     int           `env:"GREPTIMEDB_PORT" envDefault:"4001"`
	GreptimeDatabase string        `env:"GREPTIMEDB_DATABASE" envDefault:"public"`
	EventTable       string        `env:"GREPTIMEDB_EVENT_TABLE"`
	StatusTable      string        `env:"GREPTIMEDB_STATUS_TABLE"`
	GreptimeTimeout  time.Duration `env:"GREPTIMEDB_TIMEOUT" envDefault:"5s"`
}

// ParseEnv reads the overrides from the process environment.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// ApplyEnv lays the set overrides over c.
func (c *Config) ApplyEnv(e Env) {
	if e.ClusterID != "" {
		c.Unit.ClusterID = e.ClusterID
	}
	if e.Name != "" {
		c.Unit.Name = e.Name
	}
	if e.TickInterval > 0 {
		c.Scheduler.TickInterval = Duration(e.TickInterval)
	}
}
