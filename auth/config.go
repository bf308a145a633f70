package auth

import (
	"fmt"

	"github.com/kbukum/draftkit/auth/jwt"
)

// Config holds authentication configuration.
type Config struct {
	// Enabled controls whether requests must carry a bearer token.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// JWT configures token verification (required when Enabled).
	JWT *jwt.Config `yaml:"jwt" mapstructure:"jwt"`
}

// ApplyDefaults sets defaults on the JWT sub-config when present.
func (c *Config) ApplyDefaults() {
	if c.JWT != nil {
		c.JWT.ApplyDefaults()
	}
}

// Validate checks the configuration. A disabled config is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.JWT == nil {
		return fmt.Errorf("auth.jwt is required when auth is enabled")
	}
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("auth.jwt: %w", err)
	}
	return nil
}

// Describe returns a one-line summary for /info.
func (c *Config) Describe() string {
	if !c.Enabled {
		return "disabled"
	}
	if c.JWT == nil {
		return "enabled (no providers configured)"
	}
	return fmt.Sprintf("JWT(%s) TTL=%s", c.JWT.Method, c.JWT.AccessTokenTTL)
}
