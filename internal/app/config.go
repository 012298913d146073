package app

import (
	"fmt"

	coreconfig "github.com/m3rciful/postbot/core/config"
	coredatabase "github.com/m3rciful/postbot/core/database"
	"github.com/m3rciful/postbot/internal/health"
	"github.com/m3rciful/postbot/internal/scheduler"
)

// Config is the full bot configuration: the shared core sections plus the
// database, scheduler and health sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database  coredatabase.Config `yaml:"database"`
	Scheduler scheduler.Config    `yaml:"scheduler"`
	Health    health.Config       `yaml:"health"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads path, overlays the environment and validates every section.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates all sections and fills their defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Scheduler.Normalize(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Health.Normalize(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
