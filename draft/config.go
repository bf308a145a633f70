package draft

import (
	"fmt"
	"time"

	"github.com/kbukum/draftkit/validation"
)

// Strategy selects how writes are scheduled.
type Strategy string

const (
	// StrategyDebounce flushes once writes have been quiet for DebounceDelay.
	StrategyDebounce Strategy = "debounce"
	// StrategyThrottle flushes at most once per ThrottleDelay.
	StrategyThrottle Strategy = "throttle"
	// StrategyHybrid flushes immediately when ThrottleDelay has passed since
	// the last save, debounces otherwise, and never lets a change wait longer
	// than MaxWait.
	StrategyHybrid Strategy = "hybrid"
)

// ConflictPolicy decides what a flush does when another writer saved the
// same key after this store last saw it.
type ConflictPolicy string

const (
	ConflictLastWriterWins ConflictPolicy = "last-writer-wins"
	ConflictReject         ConflictPolicy = "reject"
)

const (
	DefaultDebounceDelay = 300 * time.Millisecond
	DefaultThrottleDelay = 1000 * time.Millisecond
	DefaultMaxWait       = 5000 * time.Millisecond
	DefaultFlushTimeout  = 5 * time.Second
	DefaultLastSavedKey  = "lastSaved"
	DefaultKeySuffix     = "_draft"
)

// Config is the serializable part of a draft store's options.
type Config struct {
	Strategy      Strategy       `yaml:"strategy" mapstructure:"strategy" validate:"oneof=debounce throttle hybrid"`
	DebounceDelay time.Duration  `yaml:"debounce_delay" mapstructure:"debounce_delay" validate:"gt=0"`
	ThrottleDelay time.Duration  `yaml:"throttle_delay" mapstructure:"throttle_delay" validate:"gt=0"`
	MaxWait       time.Duration  `yaml:"max_wait" mapstructure:"max_wait" validate:"gt=0"`
	FlushTimeout  time.Duration  `yaml:"flush_timeout" mapstructure:"flush_timeout" validate:"gt=0"`
	LastSavedKey  string         `yaml:"last_saved_key" mapstructure:"last_saved_key" validate:"required,ne=value"`
	KeySuffix     string         `yaml:"key_suffix" mapstructure:"key_suffix"`
	Conflict      ConflictPolicy `yaml:"conflict" mapstructure:"conflict" validate:"oneof=last-writer-wins reject"`
}

// DefaultConfig returns the hybrid 300ms/1s/5s configuration.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// NoSuffix as KeySuffix stores drafts under their bare keys.
const NoSuffix = "-"

// ApplyDefaults fills zero fields. It is idempotent.
func (c *Config) ApplyDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyHybrid
	}
	if c.DebounceDelay == 0 {
		c.DebounceDelay = DefaultDebounceDelay
	}
	if c.ThrottleDelay == 0 {
		c.ThrottleDelay = DefaultThrottleDelay
	}
	if c.MaxWait == 0 {
		c.MaxWait = DefaultMaxWait
	}
	if c.FlushTimeout == 0 {
		c.FlushTimeout = DefaultFlushTimeout
	}
	if c.LastSavedKey == "" {
		c.LastSavedKey = DefaultLastSavedKey
	}
	if c.KeySuffix == "" {
		c.KeySuffix = DefaultKeySuffix
	}
	if c.Conflict == "" {
		c.Conflict = ConflictLastWriterWins
	}
}

// Suffix returns the suffix appended to draft keys, empty for NoSuffix.
func (c Config) Suffix() string {
	if c.KeySuffix == NoSuffix {
		return ""
	}
	return c.KeySuffix
}

// Validate checks field bounds and that MaxWait is not shorter than the
// debounce delay it caps.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Strategy == StrategyHybrid && c.MaxWait < c.DebounceDelay {
		return fmt.Errorf("drafts.max_wait (%s) must be >= drafts.debounce_delay (%s)", c.MaxWait, c.DebounceDelay)
	}
	return nil
}
