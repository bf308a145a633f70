package main

import (
	"fmt"

	"github.com/kbukum/draftkit/auth"
	"github.com/kbukum/draftkit/config"
	"github.com/kbukum/draftkit/database"
	"github.com/kbukum/draftkit/draft"
	"github.com/kbukum/draftkit/encryption"
	"github.com/kbukum/draftkit/observability"
	"github.com/kbukum/draftkit/redis"
	"github.com/kbukum/draftkit/server"
	"github.com/kbukum/draftkit/storage"
	"github.com/kbukum/draftkit/storage/local"
	"github.com/kbukum/draftkit/storage/s3"
	"github.com/kbukum/draftkit/upload"
	"github.com/kbukum/draftkit/util"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendDatabase = "database"
	BackendLocal    = "local"
	BackendS3       = "s3"
)

// Config is the draftd configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`

	Drafts     draft.Config        `yaml:"drafts" mapstructure:"drafts"`
	Janitor    draft.JanitorConfig `yaml:"janitor" mapstructure:"janitor"`
	Encryption encryption.Config   `yaml:"encryption" mapstructure:"encryption"`

	// Backend selects where drafts live: memory, redis, database, local or s3.
	Backend string `yaml:"backend" mapstructure:"backend"`
	// MemoryQuota caps the memory backend, e.g. "5MB". Empty is unbounded.
	MemoryQuota string `yaml:"memory_quota" mapstructure:"memory_quota"`

	Redis    redis.Config    `yaml:"redis" mapstructure:"redis"`
	Database database.Config `yaml:"database" mapstructure:"database"`
	Storage  storage.Config  `yaml:"storage" mapstructure:"storage"`
	Local    local.Config    `yaml:"local" mapstructure:"local"`
	S3       s3.Config       `yaml:"s3" mapstructure:"s3"`

	// Upload is served when Storage is enabled or the backend is object storage.
	Upload upload.Config `yaml:"upload" mapstructure:"upload"`
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "draftd"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Drafts.ApplyDefaults()
	c.Janitor.ApplyDefaults()
	c.Encryption.ApplyDefaults()
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	switch c.Backend {
	case BackendRedis:
		c.Redis.Enabled = true
	case BackendDatabase:
		c.Database.Enabled = true
		// the draft table must exist before the first request
		c.Database.AutoMigrate = true
		if c.Database.DSN == "" {
			c.Database.DSN = "draftd.db"
		}
	case BackendLocal, BackendS3:
		c.Storage.Enabled = true
		c.Storage.Provider = c.Backend
	}
	c.Redis.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Local.ApplyDefaults()
	c.S3.ApplyDefaults()
	c.Upload.ApplyDefaults()
}

// Validate validates every section that is in use.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	checks := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Validate},
		{"auth", c.Auth.Validate},
		{"observability", c.Observability.Validate},
		{"drafts", c.Drafts.Validate},
		{"janitor", c.Janitor.Validate},
		{"encryption", c.Encryption.Validate},
		{"upload", c.Upload.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}

	switch c.Backend {
	case BackendMemory:
		if c.MemoryQuota != "" && util.ParseSize(c.MemoryQuota, -1) < 0 {
			return fmt.Errorf("memory_quota %q is not a size", c.MemoryQuota)
		}
	case BackendRedis:
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	case BackendDatabase:
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	case BackendLocal, BackendS3:
	default:
		return fmt.Errorf("backend must be one of [memory redis database local s3] (got: %s)", c.Backend)
	}

	if c.Storage.Enabled {
		if err := c.Storage.Validate(); err != nil {
			return err
		}
		if c.Storage.Provider == storage.ProviderS3 {
			return c.S3.Validate()
		}
		return c.Local.Validate()
	}
	return nil
}

// providerConfig returns the provider-specific storage config.
func (c *Config) providerConfig() any {
	if c.Storage.Provider == storage.ProviderS3 {
		return &c.S3
	}
	return &c.Local
}
