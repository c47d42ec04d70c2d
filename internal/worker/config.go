package worker

import "time"

// Config controls the worker pool.
type Config struct {
	Workers      int
	PollInterval time.Duration
	DrainTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:      5,
		PollInterval: time.Second,
		DrainTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = defaults.Workers
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaults.DrainTimeout
	}
	return c
}
