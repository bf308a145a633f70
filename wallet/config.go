package wallet

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	DefaultPersistKey     = "wallet_session"
	DefaultConnectTimeout = 30 * time.Second
)

// Config holds wallet session settings.
type Config struct {
	// Persist stores the connected account through the session's kv.Store.
	Persist bool `yaml:"persist" mapstructure:"persist"`

	// PersistKey is the kv key the account is stored under.
	PersistKey string `yaml:"persist_key" mapstructure:"persist_key"`

	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.PersistKey == "" {
		c.PersistKey = DefaultPersistKey
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Persist && c.PersistKey == "" {
		return fmt.Errorf("wallet.persist_key is required when persist is enabled")
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("wallet.connect_timeout must be positive (got: %v)", c.ConnectTimeout)
	}
	return nil
}
