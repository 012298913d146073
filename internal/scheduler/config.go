package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/postbot/internal/clock"
)

// Config controls the sweep cadence and the delivery pool.
type Config struct {
	Interval      time.Duration `yaml:"interval" envconfig:"SCHEDULER_INTERVAL"`
	FirstRunDelay time.Duration `yaml:"first_run_delay" envconfig:"SCHEDULER_FIRST_RUN_DELAY"`
	// Timezone is the IANA zone post times are written in.
	Timezone  string `yaml:"timezone" envconfig:"SCHEDULER_TIMEZONE"`
	ZoneLabel string `yaml:"zone_label" envconfig:"SCHEDULER_ZONE_LABEL"`
	Workers   int    `yaml:"workers" envconfig:"SCHEDULER_WORKERS"`
	QueueSize int    `yaml:"queue_size" envconfig:"SCHEDULER_QUEUE_SIZE"`
	// DeliveryTimeout bounds one post's delivery, fallback included.
	DeliveryTimeout time.Duration `yaml:"delivery_timeout" envconfig:"SCHEDULER_DELIVERY_TIMEOUT"`
}

const (
	DefaultInterval      = time.Minute
	DefaultFirstRunDelay = 10 * time.Second
	DefaultTimezone      = "Asia/Kolkata"
	DefaultZoneLabel     = "IST"
	DefaultDelivery      = 2 * time.Minute
)

// Normalize fills defaults and checks the zone resolves.
func (c *Config) Normalize() error {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.Interval < 0 {
		return fmt.Errorf("scheduler.interval must be > 0")
	}
	if c.FirstRunDelay == 0 {
		c.FirstRunDelay = DefaultFirstRunDelay
	}
	if c.FirstRunDelay < 0 {
		return fmt.Errorf("scheduler.first_run_delay must be >= 0")
	}
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if strings.TrimSpace(c.ZoneLabel) == "" {
		c.ZoneLabel = c.Timezone
		if c.Timezone == DefaultTimezone {
			c.ZoneLabel = DefaultZoneLabel
		}
	}
	if _, err := clock.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = DefaultDelivery
	}
	return nil
}
