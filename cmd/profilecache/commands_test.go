/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/xch-dev/sage-sub002/internal/testutil"
	"github.com/xch-dev/sage-sub002/profile"
)

const (
	aliceDID = "did:chia:1alice000000000000000000000000000000000000000000000000000000"
	bobDID   = "did:chia:1bob00000000000000000000000000000000000000000000000000000000"
	carolDID = "did:chia:1carol000000000000000000000000000000000000000000000000000000"
)

func writeTestConfig(t *testing.T, directoryURL string) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "profilecache.yml")
	cfgData := fmt.Sprintf(`
profiles:
  delayBetweenRequests: 0s
  maxConcurrentRequests: 2
directory:
  baseURL: %s
  timeout: 5s
store:
  path: %s
log:
  level: error
`, directoryURL, filepath.Join(dir, "profiles.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgData), 0o600))
	return cfgPath
}

func executeCommand(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func decodeProfiles(t *testing.T, out string) []profile.Metadata {
	t.Helper()
	var profiles []profile.Metadata
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	return profiles
}

func TestCommands_GetUsesPersistentCache(t *testing.T) {
	dir := testutil.NewFakeDirectory(t)
	dir.AddRecord(aliceDID, "Alice", "https://example.com/alice.png")
	cfgPath := writeTestConfig(t, dir.URL())

	profiles := decodeProfiles(t, executeCommand(t, "get", "-c", cfgPath, aliceDID, bobDID))
	require.Len(t, profiles, 2)
	require.Equal(t, aliceDID, profiles[0].ID)
	require.Equal(t, "Alice", profiles[0].DisplayName)
	require.NotNil(t, profiles[0].AvatarURI)
	require.Equal(t, "https://example.com/alice.png", *profiles[0].AvatarURI)
	require.False(t, profiles[0].IsUnknown)
	require.Equal(t, bobDID, profiles[1].ID)
	require.Equal(t, profile.DefaultNamer.Name(bobDID), profiles[1].DisplayName)
	require.True(t, profiles[1].IsUnknown)
	require.Equal(t, 2, dir.RequestCount())

	// A new process serves Alice from the store file. Bob was not found and is not stored.
	profiles = decodeProfiles(t, executeCommand(t, "get", "-c", cfgPath, "--cache-only", aliceDID, bobDID))
	require.Len(t, profiles, 2)
	require.Equal(t, "Alice", profiles[0].DisplayName)
	require.True(t, profiles[1].IsUnknown)
	require.Equal(t, 2, dir.RequestCount())

	entriesOut := executeCommand(t, "entries", "-c", cfgPath)
	assert.Contains(t, entriesOut, aliceDID)
	assert.Contains(t, entriesOut, "Alice")
	assert.NotContains(t, entriesOut, bobDID)
	assert.NotContains(t, entriesOut, "expired")

	require.Equal(t, "removed 0 expired profiles\n", executeCommand(t, "sweep", "-c", cfgPath))
	require.Equal(t, "profile cache cleared\n", executeCommand(t, "clear", "-c", cfgPath))

	profiles = decodeProfiles(t, executeCommand(t, "get", "-c", cfgPath, "--cache-only", aliceDID))
	require.Len(t, profiles, 1)
	require.True(t, profiles[0].IsUnknown)
	require.Equal(t, 2, dir.RequestCount())
}

func TestCommands_GetFailureIsNotCached(t *testing.T) {
	dir := testutil.NewFakeDirectory(t)
	dir.AddRecord(aliceDID, "Alice", "")
	dir.FailWithStatus(http.StatusInternalServerError)
	cfgPath := writeTestConfig(t, dir.URL())

	profiles := decodeProfiles(t, executeCommand(t, "get", "-c", cfgPath, aliceDID))
	require.Len(t, profiles, 1)
	require.True(t, profiles[0].IsUnknown)

	dir.FailWithStatus(0)
	profiles = decodeProfiles(t, executeCommand(t, "get", "-c", cfgPath, aliceDID))
	require.Len(t, profiles, 1)
	require.False(t, profiles[0].IsUnknown)
	require.Equal(t, "Alice", profiles[0].DisplayName)
	require.Nil(t, profiles[0].AvatarURI)
	require.Equal(t, 2, dir.LookupCount(aliceDID))
}

func TestCommands_Preload(t *testing.T) {
	dir := testutil.NewFakeDirectory(t)
	dir.AddRecord(aliceDID, "Alice", "")
	dir.AddRecord(bobDID, "Bob", "")
	cfgPath := writeTestConfig(t, dir.URL())

	profiles := decodeProfiles(t, executeCommand(t, "preload", "-c", cfgPath, aliceDID, bobDID, carolDID))
	require.Len(t, profiles, 3)
	require.Equal(t, "Alice", profiles[0].DisplayName)
	require.Equal(t, "Bob", profiles[1].DisplayName)
	require.True(t, profiles[2].IsUnknown)

	reqs := dir.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, http.MethodPost, reqs[0].Method)
	require.Equal(t, "/dids/batch", reqs[0].Path)
	require.ElementsMatch(t, []string{aliceDID, bobDID, carolDID}, reqs[0].DIDs)
}

func TestCommands_ConfigShow(t *testing.T) {
	dir := testutil.NewFakeDirectory(t)
	cfgPath := writeTestConfig(t, dir.URL())

	var shown map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(executeCommand(t, "config", "show", "-c", cfgPath)), &shown))
	require.Equal(t, 2, shown["profiles"]["maxConcurrentRequests"])
	require.Equal(t, dir.URL(), shown["directory"]["baseURL"])
	require.Equal(t, "error", shown["log"]["level"])
	require.Equal(t, "stderr", shown["log"]["output"])
}

func TestCommands_InvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "profilecache.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("profiles:\n  maxConcurrentRequests: 0\n"), 0o600))

	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"get", "-c", cfgPath, aliceDID})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "profiles.maxConcurrentRequests: must be positive")
}

func TestCommands_WatchRequiresConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"serve", "--watch"})
	err := cmd.ExecuteContext(context.Background())
	require.EqualError(t, err, "--watch requires a config file")
}
