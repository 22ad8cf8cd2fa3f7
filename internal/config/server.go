package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Host is the listen host; empty means all interfaces.
	Host string
	// Port is the listen port, with or without the leading colon.
	Port string
	// ReadTimeout bounds reading the entire request.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration
	// IdleTimeout bounds waiting for the next request on a keep-alive connection.
	IdleTimeout time.Duration
}

// LoadServerConfigFromEnv loads server configuration from environment variables.
func LoadServerConfigFromEnv() ServerConfig {
	return ServerConfig{
		Host:        GetEnv("SERVER_HOST", ""),
		Port:        GetEnv("SERVER_PORT", ":8080"),
		ReadTimeout: GetEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		// Manual sync requests fetch from the extractor inline, retries
		// included, so writes get a generous ceiling.
		WriteTimeout: GetEnvDuration("SERVER_WRITE_TIMEOUT", 2*time.Minute),
		IdleTimeout:  GetEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
	}
}

// GetAddress returns the listen address in host:port form.
func (c ServerConfig) GetAddress() string {
	if c.Host == "" {
		return c.Port
	}

	// net.JoinHostPort supplies the colon itself
	port := strings.TrimPrefix(c.Port, ":")
	return net.JoinHostPort(c.Host, port)
}

// Validate validates server configuration.
func (c ServerConfig) Validate() error {
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("ReadTimeout must be greater than 0")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("WriteTimeout must be greater than 0")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("IdleTimeout must be greater than 0")
	}
	return nil
}
