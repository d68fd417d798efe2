/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package store

import (
	"bytes"
	"testing"
	"time"

	"github.com/acronis/go-appkit/config"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name       string
		cfgData    string
		wantCfg    Config
		wantErrMsg string
	}{
		{
			name:    "defaults",
			cfgData: ``,
			wantCfg: Config{
				Enabled:      true,
				Path:         DefaultPath(),
				Bucket:       DefaultBoltBucket,
				OpenTimeout:  DefaultBoltOpenTimeout,
				OpenAttempts: DefaultOpenAttempts,
			},
		},
		{
			name: "custom values",
			cfgData: `
store:
  path: /tmp/sage/profiles.db
  bucket: dids
  openTimeout: 3s
  openAttempts: 5
`,
			wantCfg: Config{
				Enabled:      true,
				Path:         "/tmp/sage/profiles.db",
				Bucket:       "dids",
				OpenTimeout:  3 * time.Second,
				OpenAttempts: 5,
			},
		},
		{
			name: "disabled persistence",
			cfgData: `
store:
  enabled: false
  path: ""
`,
			wantCfg: Config{
				Enabled:      false,
				Bucket:       DefaultBoltBucket,
				OpenTimeout:  DefaultBoltOpenTimeout,
				OpenAttempts: DefaultOpenAttempts,
			},
		},
		{
			name: "negative open timeout",
			cfgData: `
store:
  openTimeout: -1s
`,
			wantErrMsg: "store.openTimeout: must not be negative",
		},
		{
			name: "zero open attempts",
			cfgData: `
store:
  openAttempts: 0
`,
			wantErrMsg: "store.openAttempts: must be positive",
		},
		{
			name: "empty path",
			cfgData: `
store:
  path: ""
`,
			wantErrMsg: "store.path: must not be empty",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
			if tt.wantErrMsg != "" {
				require.EqualError(t, err, tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			tt.wantCfg.keyPrefix = cfgDefaultKeyPrefix
			require.Equal(t, tt.wantCfg, *cfg)
		})
	}
}
