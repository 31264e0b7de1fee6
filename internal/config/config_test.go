package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.Capacity = 0 }},
		{"negative capacity", func(c *Config) { c.Capacity = -1 }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"batch size at capacity", func(c *Config) { c.Capacity = 32; c.BatchSize = 32 }},
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"nats url without subject", func(c *Config) { c.NATSURL = "nats://localhost:4222"; c.NATSSubject = "" }},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
