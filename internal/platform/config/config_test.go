package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apptrack/internal/platform/config"
	apperrors "apptrack/internal/platform/errors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(filepath.Join(dir, "apptrack.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.PollInterval())
	assert.Equal(t, 3, cfg.MinSessionDurationSeconds)
	assert.Equal(t, []string{"dwm.exe", "winlogon.exe", "csrss.exe", "searchhost.exe"}, cfg.ExcludedApplications)
	assert.True(t, cfg.EnableProductivityTracking)
	assert.True(t, cfg.EnableDetailedTracking)
	assert.Equal(t, filepath.Join(dir, "app_usage_log.json"), cfg.HistoryPath())
	assert.Equal(t, config.BackendVersioned, cfg.Storage.Backend)
	assert.Empty(t, cfg.IndexPath())
}

func TestLoadAcceptsLegacyJSONConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	legacy := `{
  "log_file": "usage.json",
  "check_interval": 10,
  "min_session_duration": 7,
  "excluded_apps": ["explorer.exe"],
  "enable_logging": true,
  "log_level": "WARNING",
  "enable_productivity_tracking": false,
  "enable_detailed_tracking": true
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.PollIntervalSeconds)
	assert.Equal(t, 7, cfg.MinSessionDurationSeconds)
	assert.Equal(t, []string{"explorer.exe"}, cfg.ExcludedApplications)
	assert.False(t, cfg.EnableProductivityTracking)
	assert.Equal(t, "WARNING", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "usage.json"), cfg.HistoryPath())
	assert.Equal(t, 1, cfg.SchemaVersion)
}

func TestLoadMalformedFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apptrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("check_interval: [oops\n"), 0o644))

	cfg, err := config.Load(path)
	require.Error(t, err)
	assert.Equal(t, 5, cfg.PollIntervalSeconds)
	assert.Equal(t, filepath.Join(dir, "app_usage_log.json"), cfg.HistoryPath())
}

func TestLoadRejectsFutureSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apptrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schema_version: 9\ncheck_interval: 1\n"), 0o644))

	cfg, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema_version 9")
	assert.Equal(t, 5, cfg.PollIntervalSeconds)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("APPTRACK_POLL_INTERVAL", "2")
	t.Setenv("APPTRACK_STORAGE_BACKEND", "legacy")
	t.Setenv("APPTRACK_PROBE_KIND", "static")
	t.Setenv("APPTRACK_EXCLUDED_APPS", "a.exe,b.exe")

	dir := t.TempDir()
	path := filepath.Join(dir, "apptrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("check_interval: 30\nmin_session_duration: 4\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.PollIntervalSeconds)
	assert.Equal(t, 4, cfg.MinSessionDurationSeconds)
	assert.Equal(t, config.BackendLegacy, cfg.Storage.Backend)
	assert.Equal(t, config.ProbeStatic, cfg.Probe.Kind)
	assert.Equal(t, []string{"a.exe", "b.exe"}, cfg.ExcludedApplications)
}

func TestSetAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "apptrack.yaml")
	cfg := config.Default()

	require.NoError(t, cfg.Set("check_interval", "9"))
	require.NoError(t, cfg.Set("excluded_apps", " idle.exe , lock.exe ,"))
	require.NoError(t, cfg.Set("enable_detailed_tracking", "false"))
	require.NoError(t, cfg.Set("storage.index_path", "usage.db"))
	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.PollIntervalSeconds)
	assert.Equal(t, []string{"idle.exe", "lock.exe"}, loaded.ExcludedApplications)
	assert.False(t, loaded.EnableDetailedTracking)
	assert.Equal(t, filepath.Join(dir, "nested", "usage.db"), loaded.IndexPath())

	value, err := loaded.Get("check_interval")
	require.NoError(t, err)
	assert.Equal(t, "9", value)
}

func TestSetRejectsBadValues(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	assert.ErrorIs(t, cfg.Set("check_interval", "0"), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, cfg.Set("min_session_duration", "-1"), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, cfg.Set("storage.backend", "sqlite"), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, cfg.Set("enable_logging", "maybe"), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, cfg.Set("colour", "blue"), apperrors.ErrUnknownConfigKey)

	for _, key := range config.Keys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}
