package upload

import (
	"fmt"
	"strings"

	"github.com/kbukum/draftkit/resilience"
	"github.com/kbukum/draftkit/util"
	"github.com/kbukum/draftkit/validation"
)

// Default configuration values.
const (
	DefaultMaxSize     = "10MB"
	DefaultMaxFiles    = 10
	DefaultConcurrency = 3
	DefaultPathPrefix  = "uploads/"
)

const defaultMaxBytes int64 = 10 * 1024 * 1024

// AcceptRule admits files whose detected MIME type matches MIME ("image/png"
// or a wildcard such as "image/*"). When Extensions is non-empty the file
// name must also carry one of them.
type AcceptRule struct {
	MIME       string   `yaml:"mime" mapstructure:"mime" validate:"required"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
}

// Dimensions bounds image sizes in pixels. Zero means unbounded.
type Dimensions struct {
	MinWidth  int `yaml:"min_width" mapstructure:"min_width" validate:"gte=0"`
	MaxWidth  int `yaml:"max_width" mapstructure:"max_width" validate:"gte=0"`
	MinHeight int `yaml:"min_height" mapstructure:"min_height" validate:"gte=0"`
	MaxHeight int `yaml:"max_height" mapstructure:"max_height" validate:"gte=0"`
}

// Config holds upload rules.
type Config struct {
	// Accept lists the accepted types. Empty accepts everything.
	Accept []AcceptRule `yaml:"accept" mapstructure:"accept" validate:"dive"`

	// MaxSize and MinSize are human sizes such as "5MB" or "512KB".
	MaxSize string `yaml:"max_size" mapstructure:"max_size"`
	MinSize string `yaml:"min_size" mapstructure:"min_size"`

	MaxFiles int `yaml:"max_files" mapstructure:"max_files" validate:"gte=1"`

	// Dimensions applies to images only.
	Dimensions *Dimensions `yaml:"dimensions" mapstructure:"dimensions"`

	Retry       resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
	Concurrency int                    `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=1"`

	// PathPrefix is prepended to generated object names.
	PathPrefix string `yaml:"path_prefix" mapstructure:"path_prefix"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.MaxSize == "" {
		c.MaxSize = DefaultMaxSize
	}
	if c.MaxFiles <= 0 {
		c.MaxFiles = DefaultMaxFiles
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.PathPrefix == "" {
		c.PathPrefix = DefaultPathPrefix
	}
	c.Retry.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.MaxBytes() <= 0 {
		return fmt.Errorf("upload.max_size must be positive (got: %q)", c.MaxSize)
	}
	if c.MinBytes() > c.MaxBytes() {
		return fmt.Errorf("upload.min_size must not exceed upload.max_size")
	}
	if d := c.Dimensions; d != nil {
		if d.MaxWidth > 0 && d.MinWidth > d.MaxWidth {
			return fmt.Errorf("upload.dimensions.min_width must not exceed max_width")
		}
		if d.MaxHeight > 0 && d.MinHeight > d.MaxHeight {
			return fmt.Errorf("upload.dimensions.min_height must not exceed max_height")
		}
	}
	for _, r := range c.Accept {
		if !strings.Contains(r.MIME, "/") {
			return fmt.Errorf("upload.accept: invalid mime %q", r.MIME)
		}
	}
	return c.Retry.Validate()
}

// MaxBytes returns MaxSize in bytes.
func (c *Config) MaxBytes() int64 {
	return util.ParseSize(c.MaxSize, defaultMaxBytes)
}

// MinBytes returns MinSize in bytes, zero when unset.
func (c *Config) MinBytes() int64 {
	return util.ParseSize(c.MinSize, 0)
}
