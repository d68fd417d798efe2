/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/acronis/go-appkit/config"
	"github.com/acronis/go-appkit/httpserver"
	"github.com/acronis/go-appkit/log"
	"github.com/acronis/go-appkit/profserver"
	gap "github.com/muesli/go-app-paths"

	"github.com/xch-dev/sage-sub002/directory"
	"github.com/xch-dev/sage-sub002/resolver"
	"github.com/xch-dev/sage-sub002/store"
)

const (
	envVarsPrefix         = "PROFILECACHE"
	defaultConfigFileName = "profilecache.yml"
)

// AppConfig is the configuration of the profilecache application.
type AppConfig struct {
	Profiles   *resolver.Config   `yaml:"profiles"`
	Directory  *directory.Config  `yaml:"directory"`
	Store      *store.Config      `yaml:"store"`
	Log        *log.Config        `yaml:"log"`
	Server     *httpserver.Config `yaml:"server"`
	ProfServer *profserver.Config `yaml:"profServer"`
}

// NewAppConfig creates a new instance of the AppConfig.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		Profiles:   resolver.NewConfig(),
		Directory:  directory.NewConfig(),
		Store:      store.NewConfig(),
		Log:        log.NewConfig(),
		Server:     httpserver.NewConfig(httpserver.WithKeyPrefix("server")),
		ProfServer: profserver.NewConfig(),
	}
}

// SetProviderDefaults is part of config interface implementation.
func (c *AppConfig) SetProviderDefaults(dp config.DataProvider) {
	config.CallSetProviderDefaultsForFields(c, dp)
	// stdout is reserved for command results.
	dp.SetDefault("log.output", string(log.OutputStderr))
	dp.SetDefault("profserver.enabled", false)
}

// Set is part of config interface implementation.
func (c *AppConfig) Set(dp config.DataProvider) error {
	return config.CallSetForFields(c, dp)
}

// loadAppConfig reads the configuration from the file at path.
// With an empty path only defaults and environment variables are used.
func loadAppConfig(path string) (*AppConfig, error) {
	cfg := NewAppConfig()
	loader := config.NewDefaultLoader(envVarsPrefix)
	if path == "" {
		if err := loader.LoadFromReader(bytes.NewReader(nil), config.DataTypeYAML, cfg); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	if err := loader.LoadFromFile(path, config.DataTypeYAML, cfg); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}
	return cfg, nil
}

// resolveConfigPath returns the explicitly passed path or, if it's empty,
// the default config file in the user config directory when that file exists.
func resolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	p, err := gap.NewScope(gap.User, store.DefaultAppName).ConfigPath(defaultConfigFileName)
	if err != nil {
		return "", nil
	}
	if _, err = os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("check config file %s: %w", p, err)
	}
	return p, nil
}
