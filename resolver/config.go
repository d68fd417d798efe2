/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package resolver

import (
	"errors"
	"fmt"
	"time"

	"github.com/acronis/go-appkit/config"

	"github.com/xch-dev/sage-sub002/profile"
)

const cfgDefaultKeyPrefix = "profiles"

const (
	cfgKeyDelayBetweenRequests  = "delayBetweenRequests"
	cfgKeyCacheDuration         = "cacheDuration"
	cfgKeyMaxConcurrentRequests = "maxConcurrentRequests"
	cfgKeySweepInterval         = "sweepInterval"
	cfgKeyFallbackPrefixLen     = "fallback.prefixLen"
	cfgKeyFallbackSuffixLen     = "fallback.suffixLen"
	cfgKeyFallbackSeparator     = "fallback.separator"
)

// Default values for Config.
const (
	DefaultDelayBetweenRequests  = 500 * time.Millisecond
	DefaultCacheDuration         = 24 * time.Hour
	DefaultMaxConcurrentRequests = 3
	DefaultSweepInterval         = time.Hour
)

// FallbackConfig configures how display names are synthesized for unknown DIDs.
type FallbackConfig struct {
	PrefixLen int    `mapstructure:"prefixLen" yaml:"prefixLen" json:"prefixLen"`
	SuffixLen int    `mapstructure:"suffixLen" yaml:"suffixLen" json:"suffixLen"`
	Separator string `mapstructure:"separator" yaml:"separator" json:"separator"`
}

// Namer returns the profile.Namer built from the configuration.
func (c FallbackConfig) Namer() (profile.Namer, error) {
	return profile.NewNamer(c.PrefixLen, c.SuffixLen, c.Separator)
}

// Config represents a set of configuration parameters for the Service.
type Config struct {
	// DelayBetweenRequests is the minimal interval between two directory requests. Zero disables rate limiting.
	DelayBetweenRequests time.Duration `mapstructure:"delayBetweenRequests" yaml:"delayBetweenRequests" json:"delayBetweenRequests"`

	// CacheDuration is how long a resolved profile stays valid in the cache.
	CacheDuration time.Duration `mapstructure:"cacheDuration" yaml:"cacheDuration" json:"cacheDuration"`

	// MaxConcurrentRequests is the maximum number of distinct DIDs fetched at the same time.
	MaxConcurrentRequests int `mapstructure:"maxConcurrentRequests" yaml:"maxConcurrentRequests" json:"maxConcurrentRequests"`

	// SweepInterval is how often expired entries are removed from the store.
	SweepInterval time.Duration `mapstructure:"sweepInterval" yaml:"sweepInterval" json:"sweepInterval"`

	Fallback FallbackConfig `mapstructure:"fallback" yaml:"fallback" json:"fallback"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config.
// Allows specifying key prefix which will be used for parsing configuration parameters.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:             cfgDefaultKeyPrefix,
		DelayBetweenRequests:  DefaultDelayBetweenRequests,
		CacheDuration:         DefaultCacheDuration,
		MaxConcurrentRequests: DefaultMaxConcurrentRequests,
		SweepInterval:         DefaultSweepInterval,
		Fallback: FallbackConfig{
			PrefixLen: profile.DefaultPrefixLen,
			SuffixLen: profile.DefaultSuffixLen,
			Separator: profile.DefaultSeparator,
		},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults is part of config interface implementation.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyDelayBetweenRequests, DefaultDelayBetweenRequests)
	dp.SetDefault(cfgKeyCacheDuration, DefaultCacheDuration)
	dp.SetDefault(cfgKeyMaxConcurrentRequests, DefaultMaxConcurrentRequests)
	dp.SetDefault(cfgKeySweepInterval, DefaultSweepInterval)
	dp.SetDefault(cfgKeyFallbackPrefixLen, profile.DefaultPrefixLen)
	dp.SetDefault(cfgKeyFallbackSuffixLen, profile.DefaultSuffixLen)
	dp.SetDefault(cfgKeyFallbackSeparator, profile.DefaultSeparator)
}

// Set is part of config interface implementation.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.DelayBetweenRequests, err = dp.GetDuration(cfgKeyDelayBetweenRequests); err != nil {
		return err
	}
	if c.DelayBetweenRequests < 0 {
		return dp.WrapKeyErr(cfgKeyDelayBetweenRequests, errors.New("must not be negative"))
	}
	if c.CacheDuration, err = dp.GetDuration(cfgKeyCacheDuration); err != nil {
		return err
	}
	if c.CacheDuration <= 0 {
		return dp.WrapKeyErr(cfgKeyCacheDuration, errors.New("must be positive"))
	}
	if c.MaxConcurrentRequests, err = dp.GetInt(cfgKeyMaxConcurrentRequests); err != nil {
		return err
	}
	if c.MaxConcurrentRequests < 1 {
		return dp.WrapKeyErr(cfgKeyMaxConcurrentRequests, errors.New("must be positive"))
	}
	if c.SweepInterval, err = dp.GetDuration(cfgKeySweepInterval); err != nil {
		return err
	}
	if c.SweepInterval <= 0 {
		return dp.WrapKeyErr(cfgKeySweepInterval, errors.New("must be positive"))
	}

	if c.Fallback.PrefixLen, err = dp.GetInt(cfgKeyFallbackPrefixLen); err != nil {
		return err
	}
	if c.Fallback.SuffixLen, err = dp.GetInt(cfgKeyFallbackSuffixLen); err != nil {
		return err
	}
	if c.Fallback.Separator, err = dp.GetString(cfgKeyFallbackSeparator); err != nil {
		return err
	}
	if _, err = c.Fallback.Namer(); err != nil {
		return dp.WrapKeyErr("fallback", err)
	}
	return nil
}

// Validate checks the runtime-tunable parameters.
func (c *Config) Validate() error {
	if c.DelayBetweenRequests < 0 {
		return fmt.Errorf("delay between requests must not be negative, got %s", c.DelayBetweenRequests)
	}
	if c.CacheDuration <= 0 {
		return fmt.Errorf("cache duration must be positive, got %s", c.CacheDuration)
	}
	if c.MaxConcurrentRequests < 1 {
		return fmt.Errorf("max concurrent requests must be positive, got %d", c.MaxConcurrentRequests)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	return nil
}

// ConfigUpdate is a partial update of the Config. Nil fields are left unchanged.
type ConfigUpdate struct {
	DelayBetweenRequests  *time.Duration
	CacheDuration         *time.Duration
	MaxConcurrentRequests *int
	SweepInterval         *time.Duration
}

// IsEmpty reports whether the update changes nothing.
func (u ConfigUpdate) IsEmpty() bool {
	return u.DelayBetweenRequests == nil && u.CacheDuration == nil &&
		u.MaxConcurrentRequests == nil && u.SweepInterval == nil
}

func (u ConfigUpdate) applyTo(cfg Config) Config {
	if u.DelayBetweenRequests != nil {
		cfg.DelayBetweenRequests = *u.DelayBetweenRequests
	}
	if u.CacheDuration != nil {
		cfg.CacheDuration = *u.CacheDuration
	}
	if u.MaxConcurrentRequests != nil {
		cfg.MaxConcurrentRequests = *u.MaxConcurrentRequests
	}
	if u.SweepInterval != nil {
		cfg.SweepInterval = *u.SweepInterval
	}
	return cfg
}

// UpdateFrom returns an update that sets every runtime-tunable parameter to the value from cfg.
func UpdateFrom(cfg *Config) ConfigUpdate {
	return ConfigUpdate{
		DelayBetweenRequests:  &cfg.DelayBetweenRequests,
		CacheDuration:         &cfg.CacheDuration,
		MaxConcurrentRequests: &cfg.MaxConcurrentRequests,
		SweepInterval:         &cfg.SweepInterval,
	}
}
