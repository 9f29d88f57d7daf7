package scheduler

import (
	"time"

	"github.com/smallbiznis/autoparts/internal/config"
)

// Config controls housekeeping intervals, retention windows and batch sizes.
type Config struct {
	Enabled          bool
	RunInterval      time.Duration
	JobTimeout       time.Duration
	BatchSize        int
	SessionRetention time.Duration
	CartRetention    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		RunInterval:      15 * time.Minute,
		JobTimeout:       time.Minute,
		BatchSize:        500,
		SessionRetention: 7 * 24 * time.Hour,
		CartRetention:    30 * 24 * time.Hour,
	}
}

func ProvideConfig(cfg config.Config) Config {
	c := DefaultConfig()
	c.Enabled = cfg.SchedulerEnabled
	if cfg.SchedulerIntervalMinutes > 0 {
		c.RunInterval = time.Duration(cfg.SchedulerIntervalMinutes) * time.Minute
	}
	return c
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.SessionRetention <= 0 {
		c.SessionRetention = defaults.SessionRetention
	}
	if c.CartRetention <= 0 {
		c.CartRetention = defaults.CartRetention
	}
	return c
}
