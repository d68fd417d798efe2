/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package directory

import (
	"errors"
	"net/url"
	"time"

	"github.com/acronis/go-appkit/config"
	"github.com/acronis/go-appkit/retry"
)

const cfgDefaultKeyPrefix = "directory"

const (
	cfgKeyBaseURL                 = "baseURL"
	cfgKeyTimeout                 = "timeout"
	cfgKeyMaxBatchSize            = "maxBatchSize"
	cfgKeyUserAgent               = "userAgent"
	cfgKeyRetriesEnabled          = "retries.enabled"
	cfgKeyRetriesMaxAttempts      = "retries.maxAttempts"
	cfgKeyRetriesInitialInterval  = "retries.initialInterval"
	cfgKeyRetriesIgnoreRetryAfter = "retries.ignoreRetryAfter"
)

// Default values for Config.
const (
	DefaultBaseURL              = "https://api.mintgarden.io"
	DefaultTimeout              = 10 * time.Second
	DefaultMaxBatchSize         = 100
	DefaultUserAgent            = "sage-profilecache"
	DefaultRetryMaxAttempts     = 2
	DefaultRetryInitialInterval = time.Second
)

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// RetriesConfig represents configuration options for retrying failed directory requests.
// Retried attempts bypass the shared rate limiting gate, so retries are disabled by default.
type RetriesConfig struct {
	Enabled          bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	MaxAttempts      int           `mapstructure:"maxAttempts" yaml:"maxAttempts" json:"maxAttempts"`
	InitialInterval  time.Duration `mapstructure:"initialInterval" yaml:"initialInterval" json:"initialInterval"`
	IgnoreRetryAfter bool          `mapstructure:"ignoreRetryAfter" yaml:"ignoreRetryAfter" json:"ignoreRetryAfter"`
}

// Policy returns an exponential backoff policy for retries.
func (c *RetriesConfig) Policy() retry.Policy {
	return retry.NewExponentialBackoffPolicy(c.InitialInterval, c.MaxAttempts)
}

// Config represents a set of configuration parameters for the directory client.
type Config struct {
	// BaseURL is the root URL of the directory service API.
	BaseURL string `mapstructure:"baseURL" yaml:"baseURL" json:"baseURL"`

	// Timeout bounds a single HTTP exchange with the directory. Exceeding it counts as a network failure.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`

	// MaxBatchSize is the maximum number of ids sent in one batch lookup.
	MaxBatchSize int `mapstructure:"maxBatchSize" yaml:"maxBatchSize" json:"maxBatchSize"`

	// UserAgent is sent in the User-Agent header of every request.
	UserAgent string `mapstructure:"userAgent" yaml:"userAgent" json:"userAgent"`

	Retries RetriesConfig `mapstructure:"retries" yaml:"retries" json:"retries"`

	keyPrefix string
}

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
		keyPrefix:    cfgDefaultKeyPrefix,
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		MaxBatchSize: DefaultMaxBatchSize,
		UserAgent:    DefaultUserAgent,
		Retries: RetriesConfig{
			MaxAttempts:     DefaultRetryMaxAttempts,
			InitialInterval: DefaultRetryInitialInterval,
		},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults is part of config interface implementation.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyBaseURL, DefaultBaseURL)
	dp.SetDefault(cfgKeyTimeout, DefaultTimeout)
	dp.SetDefault(cfgKeyMaxBatchSize, DefaultMaxBatchSize)
	dp.SetDefault(cfgKeyUserAgent, DefaultUserAgent)
	dp.SetDefault(cfgKeyRetriesEnabled, false)
	dp.SetDefault(cfgKeyRetriesMaxAttempts, DefaultRetryMaxAttempts)
	dp.SetDefault(cfgKeyRetriesInitialInterval, DefaultRetryInitialInterval)
	dp.SetDefault(cfgKeyRetriesIgnoreRetryAfter, false)
}

// Set is part of config interface implementation.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.BaseURL, err = dp.GetString(cfgKeyBaseURL); err != nil {
		return err
	}
	if c.BaseURL == "" {
		return dp.WrapKeyErr(cfgKeyBaseURL, errors.New("must not be empty"))
	}
	if u, parseErr := url.Parse(c.BaseURL); parseErr != nil || u.Scheme == "" || u.Host == "" {
		return dp.WrapKeyErr(cfgKeyBaseURL, errors.New("must be an absolute URL"))
	}

	if c.Timeout, err = dp.GetDuration(cfgKeyTimeout); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return dp.WrapKeyErr(cfgKeyTimeout, errors.New("must not be negative"))
	}

	if c.MaxBatchSize, err = dp.GetInt(cfgKeyMaxBatchSize); err != nil {
		return err
	}
	if c.MaxBatchSize < 1 {
		return dp.WrapKeyErr(cfgKeyMaxBatchSize, errors.New("must be positive"))
	}

	if c.UserAgent, err = dp.GetString(cfgKeyUserAgent); err != nil {
		return err
	}

	return c.setRetries(dp)
}

func (c *Config) setRetries(dp config.DataProvider) error {
	var err error
	if c.Retries.Enabled, err = dp.GetBool(cfgKeyRetriesEnabled); err != nil {
		return err
	}
	if c.Retries.MaxAttempts, err = dp.GetInt(cfgKeyRetriesMaxAttempts); err != nil {
		return err
	}
	if c.Retries.InitialInterval, err = dp.GetDuration(cfgKeyRetriesInitialInterval); err != nil {
		return err
	}
	if c.Retries.IgnoreRetryAfter, err = dp.GetBool(cfgKeyRetriesIgnoreRetryAfter); err != nil {
		return err
	}
	if !c.Retries.Enabled {
		return nil
	}
	if c.Retries.MaxAttempts < 1 {
		return dp.WrapKeyErr(cfgKeyRetriesMaxAttempts, errors.New("must be positive"))
	}
	if c.Retries.InitialInterval < 0 {
		return dp.WrapKeyErr(cfgKeyRetriesInitialInterval, errors.New("must not be negative"))
	}
	return nil
}
