package config

import (
	"fmt"
	"time"
)

// FeedConfig holds external schedule extractor configuration.
type FeedConfig struct {
	// ExtractorURL is the base URL of the extractor service.
	ExtractorURL string
	// RequestTimeout is the per-call timeout for one extractor request.
	RequestTimeout time.Duration
	// MaxAttempts is the total number of fetch attempts per sync run.
	MaxAttempts int
	// RetryDelay is the wait before the first retry; subsequent waits grow.
	RetryDelay time.Duration
	// MaxRetryDelay caps the wait between attempts.
	MaxRetryDelay time.Duration
}

// LoadFeedConfigFromEnv loads feed configuration from environment variables.
func LoadFeedConfigFromEnv() FeedConfig {
	return FeedConfig{
		ExtractorURL:   GetEnv("FEED_EXTRACTOR_URL", "http://localhost:9090"),
		RequestTimeout: GetEnvDuration("FEED_REQUEST_TIMEOUT", 30*time.Second),
		MaxAttempts:    GetEnvInt("FEED_MAX_ATTEMPTS", 3),
		RetryDelay:     GetEnvDuration("FEED_RETRY_DELAY", 5*time.Second),
		MaxRetryDelay:  GetEnvDuration("FEED_MAX_RETRY_DELAY", 15*time.Second),
	}
}

// Validate validates feed configuration.
func (c FeedConfig) Validate() error {
	if c.ExtractorURL == "" {
		return fmt.Errorf("ExtractorURL must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("RequestTimeout must be greater than 0")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("MaxAttempts must be greater than 0")
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("RetryDelay must be greater than 0")
	}
	return nil
}
