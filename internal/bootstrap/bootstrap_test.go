package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apptrack/internal/bootstrap"
	usageoutadapter "apptrack/internal/modules/usage/adapter/out"
	"apptrack/internal/platform/config"
	apperrors "apptrack/internal/platform/errors"
	"apptrack/internal/platform/id"
)

func newApp(t *testing.T, mutate func(*config.Config)) *bootstrap.App {
	t.Helper()
	cfg := config.Default()
	cfg.BaseDir = t.TempDir()
	cfg.EnableLogging = false
	cfg.Probe.Kind = config.ProbeStatic
	cfg.Probe.StaticApp = "code.exe"
	if mutate != nil {
		mutate(&cfg)
	}
	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewWiresStaticProbe(t *testing.T) {
	app := newApp(t, nil)
	ctx := context.Background()

	status, err := app.UsageCLI.ProbeOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.Current)
	assert.Equal(t, "code.exe", status.Current.Application)
	assert.Equal(t, "development", status.Current.Category)
}

func TestLegacyProbeOnceLeavesNoSessionBehind(t *testing.T) {
	base := t.TempDir()
	legacy := func(cfg *config.Config) {
		cfg.BaseDir = base
		cfg.Storage.Backend = config.BackendLegacy
		cfg.MinSessionDurationSeconds = 3
	}
	ctx := context.Background()

	first := newApp(t, legacy)
	status, err := first.UsageCLI.ProbeOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.Current)
	_, err = os.Stat(usageoutadapter.CheckpointPath(first.Config.HistoryPath()))
	assert.True(t, os.IsNotExist(err))

	second := newApp(t, legacy)
	apps, err := second.UsageCLI.Apps(ctx)
	require.NoError(t, err)
	assert.Empty(t, apps.Applications)
	assert.Zero(t, apps.TotalSessions)
	_, err = os.Stat(first.Config.HistoryPath())
	assert.True(t, os.IsNotExist(err))
}

func TestNewRejectsUnknownProbe(t *testing.T) {
	cfg := config.Default()
	cfg.BaseDir = t.TempDir()
	cfg.EnableLogging = false

	_, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{Probe: "carrier-pigeon"})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	cfg.Probe.Kind = config.ProbePlugin
	_, err = bootstrap.New(context.Background(), cfg, bootstrap.Options{})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestProbeOverrideWinsOverConfig(t *testing.T) {
	cfg := config.Default()
	cfg.BaseDir = t.TempDir()
	cfg.EnableLogging = false
	cfg.Probe.Kind = config.ProbePlugin

	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{Probe: "static:slack.exe"})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	status, err := app.UsageCLI.ProbeOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, status.Current)
	assert.Equal(t, "slack.exe", status.Current.Application)
}

func TestReindexRequiresIndexPath(t *testing.T) {
	app := newApp(t, nil)
	_, err := app.UsageCLI.Reindex(context.Background())
	require.ErrorIs(t, err, apperrors.ErrProjectionDisabled)

	indexed := newApp(t, func(cfg *config.Config) {
		cfg.Storage.IndexPath = "usage.db"
	})
	_, err = indexed.UsageCLI.Reindex(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(indexed.Config.BaseDir, "usage.db"))
}

func TestRouterServesHealthMetricsAndAPI(t *testing.T) {
	app := newApp(t, nil)
	router := bootstrap.NewRouter(app, id.Fixed("req-1"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tracker/status", nil)
	req.Header.Set("X-Request-ID", "caller-id")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "caller-id", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"running":false`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `apptrack_http_requests_total{method="GET",path="/api/tracker/status",status="200"} 1`)
}
