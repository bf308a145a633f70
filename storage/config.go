package storage

import (
	"fmt"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultProvider    = ProviderLocal
	DefaultDraftPrefix = "drafts/"
)

// Config holds storage configuration. Provider-specific settings live in
// local.Config and s3.Config.
type Config struct {
	// Enabled controls whether the storage component is active.
	Enabled bool `yaml:"enabled" mapstructure:"enabled" json:"enabled"`

	// Provider selects the storage backend: "local" or "s3".
	Provider string `yaml:"provider" mapstructure:"provider" json:"provider"`

	// DraftPrefix is the object path prefix draft records are stored under.
	DraftPrefix string `yaml:"draft_prefix" mapstructure:"draft_prefix" json:"draft_prefix"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.DraftPrefix == "" {
		c.DraftPrefix = DefaultDraftPrefix
	}
}

// Validate checks that the provider is one this build knows about.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal, ProviderS3:
		return nil
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
}
