package janitor

import "time"

// Config controls the queue maintenance loop.
type Config struct {
	PollInterval  time.Duration
	RunTimeout    time.Duration
	StaleAfter    time.Duration
	KeepCompleted int
	KeepFailed    int
}

func DefaultConfig() Config {
	return Config{
		PollInterval:  time.Minute,
		RunTimeout:    30 * time.Second,
		StaleAfter:    10 * time.Minute,
		KeepCompleted: 1000,
		KeepFailed:    5000,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = defaults.StaleAfter
	}
	if c.KeepCompleted <= 0 {
		c.KeepCompleted = defaults.KeepCompleted
	}
	if c.KeepFailed <= 0 {
		c.KeepFailed = defaults.KeepFailed
	}
	return c
}
