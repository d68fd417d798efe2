/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acronis/go-appkit/config"
	"github.com/acronis/go-appkit/log"
	"github.com/acronis/go-appkit/retry"
	"github.com/cenkalti/backoff/v4"
	gap "github.com/muesli/go-app-paths"
	bolt "go.etcd.io/bbolt"
)

const cfgDefaultKeyPrefix = "store"

const (
	cfgKeyEnabled      = "enabled"
	cfgKeyPath         = "path"
	cfgKeyBucket       = "bucket"
	cfgKeyOpenTimeout  = "openTimeout"
	cfgKeyOpenAttempts = "openAttempts"
)

// Default values for Config.
const (
	DefaultAppName       = "sage"
	DefaultFileName      = "profiles.db"
	DefaultOpenAttempts  = 3
	defaultRetryInterval = 200 * time.Millisecond
)

// Config represents a set of configuration parameters for the profile store.
type Config struct {
	// Enabled turns persistence on. When it's false, an in-memory store is used.
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Path is the bbolt database file path.
	// By default, the file is placed into the user data directory of the application.
	Path string `mapstructure:"path" yaml:"path" json:"path"`

	// Bucket is the bbolt bucket name.
	Bucket string `mapstructure:"bucket" yaml:"bucket" json:"bucket"`

	// OpenTimeout is how long a single open attempt waits for the file lock.
	OpenTimeout time.Duration `mapstructure:"openTimeout" yaml:"openTimeout" json:"openTimeout"`

	// OpenAttempts is how many times opening is attempted when the file is locked by another process.
	OpenAttempts int `mapstructure:"openAttempts" yaml:"openAttempts" json:"openAttempts"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:    cfgDefaultKeyPrefix,
		Enabled:      true,
		Path:         DefaultPath(),
		Bucket:       DefaultBoltBucket,
		OpenTimeout:  DefaultBoltOpenTimeout,
		OpenAttempts: DefaultOpenAttempts,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults is part of config interface implementation.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyEnabled, true)
	dp.SetDefault(cfgKeyPath, DefaultPath())
	dp.SetDefault(cfgKeyBucket, DefaultBoltBucket)
	dp.SetDefault(cfgKeyOpenTimeout, DefaultBoltOpenTimeout)
	dp.SetDefault(cfgKeyOpenAttempts, DefaultOpenAttempts)
}

// Set is part of config interface implementation.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Enabled, err = dp.GetBool(cfgKeyEnabled); err != nil {
		return err
	}
	if c.Path, err = dp.GetString(cfgKeyPath); err != nil {
		return err
	}
	if c.Enabled && c.Path == "" {
		return dp.WrapKeyErr(cfgKeyPath, errors.New("must not be empty"))
	}
	if c.Bucket, err = dp.GetString(cfgKeyBucket); err != nil {
		return err
	}
	if c.OpenTimeout, err = dp.GetDuration(cfgKeyOpenTimeout); err != nil {
		return err
	}
	if c.OpenTimeout < 0 {
		return dp.WrapKeyErr(cfgKeyOpenTimeout, errors.New("must not be negative"))
	}
	if c.OpenAttempts, err = dp.GetInt(cfgKeyOpenAttempts); err != nil {
		return err
	}
	if c.OpenAttempts < 1 {
		return dp.WrapKeyErr(cfgKeyOpenAttempts, errors.New("must be positive"))
	}
	return nil
}

// DefaultPath returns the default database path inside the user data directory.
// If the directory can't be determined, the file name relative to the working directory is returned.
func DefaultPath() string {
	p, err := gap.NewScope(gap.User, DefaultAppName).DataPath(DefaultFileName)
	if err != nil {
		return DefaultFileName
	}
	return p
}

// NewOpener returns an Opener for the configured store.
// Opening a bbolt file locked by another process is retried with a constant backoff.
func NewOpener(cfg *Config, logger log.FieldLogger) Opener {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return func(ctx context.Context) (Store, error) {
		if !cfg.Enabled {
			logger.Info("profile store persistence is disabled, using in-memory store")
			return NewMemoryStore(), nil
		}
		attempts := cfg.OpenAttempts
		if attempts < 1 {
			attempts = 1
		}
		policy := retry.PolicyFunc(func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(defaultRetryInterval), uint64(attempts-1))
		})
		var s *BoltStore
		err := retry.DoWithRetry(ctx, policy, isLockTimeout, func(err error, d time.Duration) {
			logger.Warn("profile store is locked, retrying", log.String("path", cfg.Path),
				log.Error(err), log.Duration("delay", d))
		}, func(ctx context.Context) error {
			var openErr error
			s, openErr = OpenBoltStoreWithOpts(cfg.Path, BoltStoreOpts{Bucket: cfg.Bucket, OpenTimeout: cfg.OpenTimeout})
			return openErr
		})
		if err != nil {
			return nil, fmt.Errorf("open profile store: %w", err)
		}
		logger.Info("profile store opened", log.String("path", s.Path()))
		return s, nil
	}
}

func isLockTimeout(err error) bool {
	return errors.Is(err, bolt.ErrTimeout)
}
