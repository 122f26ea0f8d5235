package out_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usageout "apptrack/internal/modules/usage/adapter/out"
	"apptrack/internal/modules/usage/domain"
)

func writeComm(t *testing.T, root string, pid, name string) {
	t.Helper()
	dir := filepath.Join(root, pid)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "comm"), []byte(name+"\n"), 0o644))
}

func scriptedRunner(outputs ...string) usageout.CommandRunner {
	i := 0
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		out := outputs[i%len(outputs)]
		i++
		return []byte(out), nil
	}
}

func TestXdotoolProbeResolvesProcessName(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeComm(t, root, "4242", "code")
	writeComm(t, root, "77", "firefox")
	probe := usageout.NewXdotoolProbe(
		usageout.WithProcRoot(root),
		usageout.WithCommandRunner(scriptedRunner("main.go - apptrack\n4242\n", "main.go - apptrack\n4242\n", "Docs\n77\n")),
	)
	ctx := context.Background()

	first, err := probe.Sample(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Sample{Application: "code", WindowTitle: "main.go - apptrack", PID: 4242}, first)

	second, err := probe.Sample(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.SwitchCount)

	third, err := probe.Sample(ctx)
	require.NoError(t, err)
	assert.Equal(t, "firefox", third.Application)
	assert.Equal(t, 1, third.SwitchCount)
}

func TestXdotoolProbeFallbacks(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	ctx := context.Background()

	unresolved := usageout.NewXdotoolProbe(usageout.WithProcRoot(root), usageout.WithCommandRunner(scriptedRunner("Terminal\n999\n")))
	sample, err := unresolved.Sample(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.UnknownProcess, sample.Application)
	assert.Equal(t, "Terminal", sample.WindowTitle)
	assert.Equal(t, 999, sample.PID)

	noFocus := usageout.NewXdotoolProbe(usageout.WithProcRoot(root), usageout.WithCommandRunner(
		func(context.Context, string, ...string) ([]byte, error) {
			return nil, &exec.ExitError{}
		}))
	sample, err = noFocus.Sample(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DesktopApplication, sample.Application)

	missing := usageout.NewXdotoolProbe(usageout.WithCommandRunner(
		func(context.Context, string, ...string) ([]byte, error) {
			return nil, exec.ErrNotFound
		}))
	_, err = missing.Sample(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestStaticProbe(t *testing.T) {
	t.Parallel()
	sample, err := usageout.NewStaticProbe("code.exe").Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "code.exe", sample.Application)

	desktop, err := usageout.NewStaticProbe(" ").Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DesktopApplication, desktop.Application)
}
