package in_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usagehttp "apptrack/internal/modules/usage/adapter/in"
	"apptrack/internal/modules/usage/dto"
	apperrors "apptrack/internal/platform/errors"
)

type fakeUsecase struct {
	running  bool
	startErr error
	topN     int
	date     string
}

func (f *fakeUsecase) Run(context.Context) error { return nil }

func (f *fakeUsecase) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeUsecase) Stop(context.Context) error {
	f.running = false
	return nil
}

func (f *fakeUsecase) Poll(context.Context) error { return nil }

func (f *fakeUsecase) Status(context.Context) (dto.StatusOutput, error) {
	return dto.StatusOutput{Running: f.running, TotalApps: 2, TotalSessions: 3}, nil
}

func (f *fakeUsecase) History(context.Context) (dto.HistoryOutput, error) {
	return dto.HistoryOutput{Applications: []dto.ApplicationOutput{{Name: "code.exe", Category: "development"}}, TotalSessions: 3}, nil
}

func (f *fakeUsecase) DailyUsage(_ context.Context, input dto.DailyUsageInput) (dto.DailyUsageOutput, error) {
	f.date = input.Date
	if input.Date == "bad" {
		return dto.DailyUsageOutput{}, apperrors.ErrInvalidInput
	}
	return dto.DailyUsageOutput{Date: input.Date, TotalSeconds: 250}, nil
}

func (f *fakeUsecase) TopApplications(_ context.Context, n int) ([]dto.AppUsageOutput, error) {
	f.topN = n
	return []dto.AppUsageOutput{{Application: "code.exe", Seconds: 200}}, nil
}

func (f *fakeUsecase) CategoryAnalysis(context.Context) ([]dto.CategoryOutput, error) {
	return []dto.CategoryOutput{{Category: "development", TotalSeconds: 200}}, nil
}

func (f *fakeUsecase) Stats(context.Context) (dto.StatsOutput, error) {
	return dto.StatsOutput{TotalSessions: 3, Productivity: dto.ProductivityOutput{Percentage: 80}}, nil
}

func (f *fakeUsecase) Report(context.Context) (dto.ReportOutput, error) {
	return dto.ReportOutput{Text: "Usage Report"}, nil
}

func (f *fakeUsecase) Backup(context.Context) (dto.BackupOutput, error) {
	return dto.BackupOutput{Path: "app_usage_log.backup_20260225100000.json", Created: true}, nil
}

func (f *fakeUsecase) Export(_ context.Context, input dto.ExportInput) (dto.ExportOutput, error) {
	if input.Format != "csv" {
		return dto.ExportOutput{}, apperrors.ErrUnsupportedFormat
	}
	return dto.ExportOutput{Format: "csv", ContentType: "text/csv", Filename: "app_usage_20260225_100000.csv", Body: []byte("App Name\n")}, nil
}

func (f *fakeUsecase) Reindex(context.Context) (dto.ReindexOutput, error) {
	return dto.ReindexOutput{}, apperrors.ErrProjectionDisabled
}

func newRouter(uc *fakeUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	usagehttp.NewHTTPHandler(uc, 10*time.Millisecond).Register(r)
	return r
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestTrackerControlEndpoints(t *testing.T) {
	uc := &fakeUsecase{}
	r := newRouter(uc)

	rec := serve(r, http.MethodPost, "/api/tracker/start")
	require.Equal(t, http.StatusOK, rec.Code)
	status := dto.StatusOutput{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Running)

	uc.startErr = apperrors.ErrAlreadyRunning
	rec = serve(r, http.MethodPost, "/api/tracker/start")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already running")

	rec = serve(r, http.MethodPost, "/api/tracker/stop")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Running)

	uc.startErr = apperrors.ErrProbeUnavailable
	rec = serve(r, http.MethodPost, "/api/tracker/start")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTrackerDataEndpoints(t *testing.T) {
	uc := &fakeUsecase{}
	r := newRouter(uc)

	rec := serve(r, http.MethodGet, "/api/tracker/data")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"code.exe"`)

	rec = serve(r, http.MethodGet, "/api/tracker/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"productivity_percentage":80`)

	rec = serve(r, http.MethodPost, "/api/tracker/backup")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"created":true`)
}

func TestExportEndpoint(t *testing.T) {
	r := newRouter(&fakeUsecase{})

	rec := serve(r, http.MethodGet, "/api/tracker/export?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="app_usage_20260225_100000.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "App Name\n", rec.Body.String())

	rec = serve(r, http.MethodGet, "/api/tracker/export?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsageEndpoints(t *testing.T) {
	uc := &fakeUsecase{}
	r := newRouter(uc)

	rec := serve(r, http.MethodGet, "/api/usage/daily?date=2026-02-25")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-02-25", uc.date)

	rec = serve(r, http.MethodGet, "/api/usage/daily?date=bad")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodGet, "/api/usage/top")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, uc.topN)
	serve(r, http.MethodGet, "/api/usage/top?n=10")
	assert.Equal(t, 10, uc.topN)
	rec = serve(r, http.MethodGet, "/api/usage/top?n=ten")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodGet, "/api/usage/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"categories":[`)

	rec = serve(r, http.MethodGet, "/api/usage/report?format=text")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Usage Report", rec.Body.String())
}

func TestStreamEmitsStatusEvents(t *testing.T) {
	r := newRouter(&fakeUsecase{running: true})
	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tracker/stream", nil).WithContext(ctx)
	r.ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.GreaterOrEqual(t, strings.Count(rec.Body.String(), "event:status"), 2)
	assert.Contains(t, rec.Body.String(), `"running":true`)
}
