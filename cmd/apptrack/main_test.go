package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "apptrack.yaml")
	doc := "enable_logging: false\nprobe:\n  kind: static\n  static_app: code.exe\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestConfigSetShowRoundTrip(t *testing.T) {
	path := writeConfig(t)

	out, err := runCLI(t, "--config", path, "config", "set", "check_interval", "10")
	require.NoError(t, err)
	assert.Equal(t, "check_interval = 10\n", out)

	out, err = runCLI(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "check_interval = 10\n")
	assert.Contains(t, out, "probe.static_app = code.exe\n")

	_, err = runCLI(t, "--config", path, "config", "set", "no_such_key", "1")
	require.Error(t, err)
}

func TestConfigSetRefusesMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apptrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("check_interval: [oops"), 0o644))

	_, err := runCLI(t, "--config", path, "config", "set", "check_interval", "10")
	require.ErrorContains(t, err, "refusing to rewrite")

	raw, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "check_interval: [oops", string(raw))
}

func TestProbeAndQueriesWithStaticProbe(t *testing.T) {
	path := writeConfig(t)

	out, err := runCLI(t, "--config", path, "probe")
	require.NoError(t, err)
	assert.Contains(t, out, "application=code.exe category=development")

	out, err = runCLI(t, "--config", path, "--probe", "static:slack.exe", "probe")
	require.NoError(t, err)
	assert.Contains(t, out, "application=slack.exe category=communication")

	out, err = runCLI(t, "--config", path, "top")
	require.NoError(t, err)
	assert.Equal(t, "no usage recorded\n", out)

	out, err = runCLI(t, "--config", path, "--json", "categories")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))

	_, err = runCLI(t, "--config", path, "today", "--date", "yesterday")
	require.Error(t, err)
}

func TestExportAndBackup(t *testing.T) {
	path := writeConfig(t)
	target := filepath.Join(filepath.Dir(path), "out", "usage.csv")

	out, err := runCLI(t, "--config", path, "export", "--format", "csv", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "exported "+target)
	raw, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "App Name,Category,Total Duration (s),Sessions,Last Used"))

	_, err = runCLI(t, "--config", path, "export", "--format", "xml", "-o", "-")
	require.Error(t, err)

	out, err = runCLI(t, "--config", path, "backup")
	require.NoError(t, err)
	assert.Equal(t, "nothing to back up\n", out)
}
