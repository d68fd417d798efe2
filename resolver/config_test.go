/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package resolver

import (
	"bytes"
	"testing"
	"time"

	"github.com/acronis/go-appkit/config"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfgData string
		wantCfg func() *Config
		wantErr string
	}{
		{
			name:    "defaults",
			cfgData: ``,
			wantCfg: NewDefaultConfig,
		},
		{
			name: "custom values",
			cfgData: `
profiles:
  delayBetweenRequests: 100ms
  cacheDuration: 1s
  maxConcurrentRequests: 1
  sweepInterval: 10m
  fallback:
    prefixLen: 8
    suffixLen: 0
    separator: "…"
`,
			wantCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.DelayBetweenRequests = 100 * time.Millisecond
				cfg.CacheDuration = time.Second
				cfg.MaxConcurrentRequests = 1
				cfg.SweepInterval = 10 * time.Minute
				cfg.Fallback = FallbackConfig{PrefixLen: 8, SuffixLen: 0, Separator: "…"}
				return cfg
			},
		},
		{
			name: "rate limiting disabled",
			cfgData: `
profiles:
  delayBetweenRequests: 0s
`,
			wantCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.DelayBetweenRequests = 0
				return cfg
			},
		},
		{
			name: "negative delay",
			cfgData: `
profiles:
  delayBetweenRequests: -1s
`,
			wantErr: "profiles.delayBetweenRequests: must not be negative",
		},
		{
			name: "zero cache duration",
			cfgData: `
profiles:
  cacheDuration: 0s
`,
			wantErr: "profiles.cacheDuration: must be positive",
		},
		{
			name: "zero max concurrent requests",
			cfgData: `
profiles:
  maxConcurrentRequests: 0
`,
			wantErr: "profiles.maxConcurrentRequests: must be positive",
		},
		{
			name: "invalid fallback naming",
			cfgData: `
profiles:
  fallback:
    prefixLen: -1
`,
			wantErr: "profiles.fallback: prefix length must be non-negative, got -1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantCfg(), cfg)
		})
	}
}

func TestConfigUpdate(t *testing.T) {
	require.True(t, ConfigUpdate{}.IsEmpty())

	cfg := NewDefaultConfig()
	cfg.DelayBetweenRequests = time.Second
	cfg.MaxConcurrentRequests = 7
	u := UpdateFrom(cfg)
	require.False(t, u.IsEmpty())

	got := u.applyTo(*NewDefaultConfig())
	require.Equal(t, time.Second, got.DelayBetweenRequests)
	require.Equal(t, 7, got.MaxConcurrentRequests)
	require.Equal(t, DefaultCacheDuration, got.CacheDuration)
}
