package scheduler

import (
	"time"

	appconfig "github.com/elrc-run/attendly/internal/config"
)

// Config controls the poll interval and the notify lookahead window.
type Config struct {
	CheckInterval   time.Duration
	LookaheadWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		CheckInterval:   time.Hour,
		LookaheadWindow: time.Hour,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.CheckInterval <= 0 {
		c.CheckInterval = defaults.CheckInterval
	}
	if c.LookaheadWindow <= 0 {
		c.LookaheadWindow = defaults.LookaheadWindow
	}
	return c
}

func ProvideConfig(cfg appconfig.Config) Config {
	return Config{
		CheckInterval:   cfg.SchedulerCheckInterval,
		LookaheadWindow: cfg.SchedulerLookahead,
	}.withDefaults()
}
