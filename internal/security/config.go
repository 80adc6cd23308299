package security

import "time"

type Threshold struct {
	Limit  int
	Window time.Duration
}

type Thresholds struct {
	BruteForce  Threshold
	Suspicious  Threshold
	DataExport  Threshold
	AdminAction Threshold
}

type Config struct {
	Thresholds Thresholds

	// Retention bounds the in-memory recency index; the durable log is not affected.
	Retention     time.Duration
	SweepInterval time.Duration
	// BlockTTL of zero keeps blocks until an explicit unblock.
	BlockTTL      time.Duration
	NotifyTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Thresholds:    DefaultThresholds(),
		Retention:     7 * 24 * time.Hour,
		SweepInterval: time.Hour,
		NotifyTimeout: 10 * time.Second,
	}
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		BruteForce:  Threshold{Limit: 5, Window: 15 * time.Minute},
		Suspicious:  Threshold{Limit: 20, Window: 5 * time.Minute},
		DataExport:  Threshold{Limit: 3, Window: 24 * time.Hour},
		AdminAction: Threshold{Limit: 10, Window: time.Hour},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	c.Thresholds.BruteForce = orThreshold(c.Thresholds.BruteForce, d.Thresholds.BruteForce)
	c.Thresholds.Suspicious = orThreshold(c.Thresholds.Suspicious, d.Thresholds.Suspicious)
	c.Thresholds.DataExport = orThreshold(c.Thresholds.DataExport, d.Thresholds.DataExport)
	c.Thresholds.AdminAction = orThreshold(c.Thresholds.AdminAction, d.Thresholds.AdminAction)
	if c.Retention <= 0 {
		c.Retention = d.Retention
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = d.SweepInterval
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = d.NotifyTimeout
	}
	return c
}

func orThreshold(t, fallback Threshold) Threshold {
	if t.Limit <= 0 {
		t.Limit = fallback.Limit
	}
	if t.Window <= 0 {
		t.Window = fallback.Window
	}
	return t
}
