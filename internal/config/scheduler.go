package config

import (
	"fmt"
	"time"
)

// SchedulerConfig holds adaptive scrape scheduler configuration.
type SchedulerConfig struct {
	// BaseInterval is the polling interval outside a tournament's active window.
	BaseInterval time.Duration
	// ActiveInterval is the polling interval inside the active window
	// (one day before the start date through the end date).
	ActiveInterval time.Duration
	// TickInterval is how often the scheduler re-evaluates tracked tournaments.
	TickInterval time.Duration
	// MaxConcurrentRuns bounds how many tournaments sync at the same time.
	MaxConcurrentRuns int
	// Enabled controls whether the background loop starts at all.
	Enabled bool
}

// LoadSchedulerConfigFromEnv loads scheduler configuration from environment variables.
func LoadSchedulerConfigFromEnv() SchedulerConfig {
	return SchedulerConfig{
		BaseInterval:      GetEnvDuration("SCHEDULER_BASE_INTERVAL", 24*time.Hour),
		ActiveInterval:    GetEnvDuration("SCHEDULER_ACTIVE_INTERVAL", 1*time.Hour),
		TickInterval:      GetEnvDuration("SCHEDULER_TICK_INTERVAL", 30*time.Minute),
		MaxConcurrentRuns: GetEnvInt("SCHEDULER_MAX_CONCURRENT_RUNS", 4),
		Enabled:           GetEnvBool("SCHEDULER_ENABLED", true),
	}
}

// Validate validates scheduler configuration.
func (c SchedulerConfig) Validate() error {
	if c.BaseInterval <= 0 {
		return fmt.Errorf("BaseInterval must be greater than 0")
	}
	if c.ActiveInterval <= 0 {
		return fmt.Errorf("ActiveInterval must be greater than 0")
	}
	if c.ActiveInterval > c.BaseInterval {
		return fmt.Errorf(
			"ActiveInterval (%s) cannot be greater than BaseInterval (%s)",
			c.ActiveInterval, c.BaseInterval)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TickInterval must be greater than 0")
	}
	if c.MaxConcurrentRuns <= 0 {
		return fmt.Errorf("MaxConcurrentRuns must be greater than 0")
	}
	return nil
}
