package out_test

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usageout "apptrack/internal/modules/usage/adapter/out"
)

func TestPluginProbeIntegrationXProbe(t *testing.T) {
	binPath := buildXProbe(t)
	t.Setenv("APPTRACK_XPROBE_STATIC", "code")

	probe := usageout.NewPluginProbe(binPath, nil)
	t.Cleanup(func() { _ = probe.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	meta, err := probe.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "xprobe", meta.Name)

	sample, err := probe.Sample(ctx)
	require.NoError(t, err)
	assert.Equal(t, "code", sample.Application)

	again, err := probe.Sample(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.SwitchCount)
}

func TestPluginProbeMissingBinary(t *testing.T) {
	t.Parallel()
	probe := usageout.NewPluginProbe(filepath.Join(t.TempDir(), "missing-probe"), nil)
	_, err := probe.Sample(context.Background())
	require.Error(t, err)
}

func buildXProbe(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "xprobe")
	cmd := exec.Command("go", "build", "-o", binPath, "./plugins/xprobe")
	cmd.Dir = repositoryRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build xprobe plugin: %v\n%s", err, string(out))
	}
	return binPath
}

func repositoryRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../../../../../"))
}
