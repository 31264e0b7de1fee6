// Package config holds the replay server configuration.
package config

import (
	"fmt"
	"time"
)

// Config holds all replay server configuration.
type Config struct {
	// HTTP server settings
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Replay buffer settings
	Capacity  int `mapstructure:"capacity"`
	BatchSize int `mapstructure:"batch_size"`

	// Event publishing; empty NATSURL selects the no-op publisher
	NATSURL     string `mapstructure:"nats_url"`
	NATSSubject string `mapstructure:"nats_subject"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		Capacity:        100000,
		BatchSize:       32,
		NATSSubject:     "experience",
		LogLevel:        "info",
	}
}

// Validate checks if the configuration is valid. Malformed sampling
// parameters fail here, at construction time, not during steady-state
// operation.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.BatchSize >= c.Capacity {
		return fmt.Errorf("batch_size %d must be smaller than capacity %d", c.BatchSize, c.Capacity)
	}
	if c.NATSURL != "" && c.NATSSubject == "" {
		return fmt.Errorf("nats_subject is required when nats_url is set")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	return nil
}
