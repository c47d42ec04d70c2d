package poller

import "time"

// Config controls the due-publication polling loop.
type Config struct {
	Interval   time.Duration
	RunTimeout time.Duration
	BatchSize  int
	// LockTTL bounds how long a replica holds the leader lock when a
	// Redis locker is configured.
	LockTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:   time.Minute,
		RunTimeout: 30 * time.Second,
		BatchSize:  100,
		LockTTL:    50 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
