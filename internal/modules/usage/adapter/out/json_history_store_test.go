package out_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	usageout "apptrack/internal/modules/usage/adapter/out"
	"apptrack/internal/modules/usage/domain"
	apperrors "apptrack/internal/platform/errors"
)

func TestJSONHistoryStoreMissingFileIsEmpty(t *testing.T) {
	t.Parallel()
	store := usageout.NewJSONHistoryStore(filepath.Join(t.TempDir(), "app_usage_log.json"), fixedClock{now: at(28, 18, 0, 0)})

	history, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, history.Empty())
}

func TestJSONHistoryStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs", "app_usage_log.json")
	store := usageout.NewJSONHistoryStore(path, fixedClock{now: at(28, 18, 0, 0)})
	original := sampleHistory(t)

	require.NoError(t, store.Save(ctx, original))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, original.Applications(), loaded.Applications())
	for _, app := range original.Applications() {
		assert.Equal(t, original.Sessions(app), loaded.Sessions(app), app)
	}

	require.NoError(t, store.Save(ctx, loaded))
	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, loaded.Sessions("code.exe"), again.Sessions("code.exe"))
}

func TestJSONHistoryStoreWritesVersionedDocument(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "app_usage_log.json")
	store := usageout.NewJSONHistoryStore(path, fixedClock{now: at(28, 18, 0, 0)})
	require.NoError(t, store.Save(context.Background(), sampleHistory(t)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := struct {
		Metadata struct {
			Version        string `json:"version"`
			LastUpdated    string `json:"last_updated"`
			TotalSessions  int    `json:"total_sessions"`
			TotalApps      int    `json:"total_apps"`
			TrackingPeriod struct {
				Start string `json:"start"`
				End   string `json:"end"`
				Days  int    `json:"days"`
			} `json:"tracking_period"`
		} `json:"metadata"`
		Applications map[string]struct {
			Category      string           `json:"category"`
			TotalSessions int              `json:"total_sessions"`
			TotalDuration int              `json:"total_duration"`
			Average       float64          `json:"average_session_duration"`
			Median        float64          `json:"median_session_duration"`
			FirstUsed     string           `json:"first_used"`
			LastUsed      string           `json:"last_used"`
			DailyUsage    map[string]int   `json:"daily_usage"`
			HourlyPattern map[string]int   `json:"hourly_pattern"`
			Sessions      []map[string]any `json:"sessions"`
		} `json:"applications"`
	}{}
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "2.0", doc.Metadata.Version)
	assert.Equal(t, "2026-02-28 18:00:00", doc.Metadata.LastUpdated)
	assert.Equal(t, 3, doc.Metadata.TotalSessions)
	assert.Equal(t, 2, doc.Metadata.TotalApps)
	assert.Equal(t, "2026-02-25", doc.Metadata.TrackingPeriod.Start)
	assert.Equal(t, "2026-02-28", doc.Metadata.TrackingPeriod.End)
	assert.Equal(t, 4, doc.Metadata.TrackingPeriod.Days)

	code := doc.Applications["code.exe"]
	assert.Equal(t, "development", code.Category)
	assert.Equal(t, 2, code.TotalSessions)
	assert.Equal(t, 200, code.TotalDuration)
	assert.Equal(t, 100.0, code.Average)
	assert.Equal(t, 80.0, code.Median)
	assert.Equal(t, "2026-02-25 09:00:00", code.FirstUsed)
	assert.Equal(t, "2026-02-28 14:01:20", code.LastUsed)
	assert.Equal(t, map[string]int{"2026-02-25": 120, "2026-02-28": 80}, code.DailyUsage)
	assert.Len(t, code.HourlyPattern, 24)
	assert.Equal(t, 120, code.HourlyPattern["9"])
	assert.Equal(t, 80, code.HourlyPattern["14"])
	require.Len(t, code.Sessions, 2)
	assert.Equal(t, "2026-02-25 09:02:00", code.Sessions[0]["end"])
	assert.Equal(t, "morning", code.Sessions[0]["metadata"].(map[string]any)["time_of_day"])
	assert.Equal(t, "Saturday", code.Sessions[1]["metadata"].(map[string]any)["day_of_week"])
	assert.Equal(t, true, code.Sessions[1]["metadata"].(map[string]any)["is_weekend"])
}

func TestJSONHistoryStoreWritesStatsFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "app_usage_log.json")
	store := usageout.NewJSONHistoryStore(path, fixedClock{now: at(28, 18, 0, 0)})
	require.NoError(t, store.Save(context.Background(), sampleHistory(t)))

	statsPath := filepath.Join(filepath.Dir(path), "app_usage_log.stats.json")
	assert.Equal(t, statsPath, usageout.StatsPath(path))
	raw, err := os.ReadFile(statsPath)
	require.NoError(t, err)
	stats := struct {
		Summary struct {
			TotalSessions int `json:"total_sessions"`
		} `json:"summary"`
		TopApps []struct {
			Name          string `json:"name"`
			TotalDuration int    `json:"total_duration"`
		} `json:"top_apps"`
		CategoryBreakdown map[string]struct {
			TotalDuration int `json:"total_duration"`
			TotalSessions int `json:"total_sessions"`
			AppCount      int `json:"app_count"`
		} `json:"category_breakdown"`
		Productivity struct {
			Percentage  float64 `json:"productivity_percentage"`
			Distraction int     `json:"distraction_time"`
		} `json:"productivity_metrics"`
		TimePatterns struct {
			PeakHours []struct {
				Hour     int `json:"hour"`
				Duration int `json:"duration"`
			} `json:"peak_hours"`
			WeekendUsage int            `json:"weekend_usage"`
			WeekdayUsage int            `json:"weekday_usage"`
			Hourly       map[string]int `json:"hourly_distribution"`
		} `json:"time_patterns"`
	}{}
	require.NoError(t, json.Unmarshal(raw, &stats))

	assert.Equal(t, 3, stats.Summary.TotalSessions)
	require.Len(t, stats.TopApps, 2)
	assert.Equal(t, "code.exe", stats.TopApps[0].Name)
	assert.Equal(t, 200, stats.TopApps[0].TotalDuration)
	assert.Equal(t, 2, stats.CategoryBreakdown["development"].TotalSessions)
	assert.Equal(t, 1, stats.CategoryBreakdown["browser"].AppCount)
	assert.Equal(t, 80.0, stats.Productivity.Percentage)
	assert.Equal(t, 50, stats.Productivity.Distraction)
	require.Len(t, stats.TimePatterns.PeakHours, 3)
	assert.Equal(t, 9, stats.TimePatterns.PeakHours[0].Hour)
	assert.Equal(t, 170, stats.TimePatterns.PeakHours[0].Duration)
	assert.Equal(t, 14, stats.TimePatterns.PeakHours[1].Hour)
	assert.Equal(t, 80, stats.TimePatterns.WeekendUsage)
	assert.Equal(t, 170, stats.TimePatterns.WeekdayUsage)
	assert.Len(t, stats.TimePatterns.Hourly, 24)
}

func TestJSONHistoryStoreLoadsLegacyDocument(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "app_usage_log.json")
	legacy := `{
  "slack.exe": [
    {"session_id": "slack.exe_1", "start": "2026-02-25 10:00:00", "end": "2026-02-25 10:01:00", "duration_seconds": 60},
    {"start": "2026-02-25 11:00:00", "end": null, "duration_seconds": 0}
  ],
  "code.exe": [
    {"start": "2026-02-25 10:01:00", "end": "2026-02-25 10:03:00", "duration_seconds": 120, "category": "unknown"}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))
	store := usageout.NewJSONHistoryStore(path, fixedClock{now: at(28, 18, 0, 0)})

	history, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"slack.exe", "code.exe"}, history.Applications())
	slack := history.Sessions("slack.exe")
	require.Len(t, slack, 1)
	assert.Equal(t, "slack.exe_1", slack[0].ID)
	assert.Equal(t, domain.CategoryCommunication, slack[0].Category)
	code := history.Sessions("code.exe")
	require.Len(t, code, 1)
	assert.Equal(t, domain.CategoryDevelopment, code[0].Category)
	assert.Equal(t, domain.SessionID("code.exe", at(25, 10, 1, 0)), code[0].ID)
}

// legacyFromVersioned rewrites a versioned document into the legacy map of
// application name to session list, keeping application order.
func legacyFromVersioned(t *testing.T, versioned []byte) []byte {
	t.Helper()
	doc := struct {
		Applications *orderedmap.OrderedMap[string, struct {
			Sessions json.RawMessage `json:"sessions"`
		}] `json:"applications"`
	}{}
	require.NoError(t, json.Unmarshal(versioned, &doc))
	legacy := orderedmap.New[string, json.RawMessage]()
	for pair := doc.Applications.Oldest(); pair != nil; pair = pair.Next() {
		legacy.Set(pair.Key, pair.Value.Sessions)
	}
	out, err := json.Marshal(legacy)
	require.NoError(t, err)
	return out
}

func TestJSONHistoryStoreLegacyAndVersionedLoadIdentically(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	clk := fixedClock{now: at(28, 18, 0, 0)}
	versionedPath := filepath.Join(dir, "versioned", "app_usage_log.json")
	require.NoError(t, usageout.NewJSONHistoryStore(versionedPath, clk).Save(ctx, sampleHistory(t)))
	raw, err := os.ReadFile(versionedPath)
	require.NoError(t, err)

	legacyPath := filepath.Join(dir, "legacy.json")
	require.NoError(t, os.WriteFile(legacyPath, legacyFromVersioned(t, raw), 0o644))

	fromVersioned, err := usageout.NewJSONHistoryStore(versionedPath, clk).Load(ctx)
	require.NoError(t, err)
	fromLegacy, err := usageout.NewJSONHistoryStore(legacyPath, clk).Load(ctx)
	require.NoError(t, err)

	require.Equal(t, fromVersioned.Applications(), fromLegacy.Applications())
	for _, app := range fromVersioned.Applications() {
		assert.Equal(t, fromVersioned.Sessions(app), fromLegacy.Sessions(app), app)
	}
	assert.Equal(t, 3, fromLegacy.SessionCount())
}

func TestJSONHistoryStoreMalformedFileIsLeftUntouched(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app_usage_log.json")
	for _, payload := range []string{`{"applications": [1, 2]`, `[1, 2, 3]`, `{"code.exe": "nope"}`} {
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))
		store := usageout.NewJSONHistoryStore(path, fixedClock{now: at(28, 18, 0, 0)})

		history, err := store.Load(ctx)
		require.ErrorIs(t, err, apperrors.ErrMalformedHistory, payload)
		assert.True(t, history.Empty())
		raw, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, payload, string(raw))
	}
}

func TestJSONHistoryStoreBackup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "app_usage_log.json")
	store := usageout.NewJSONHistoryStore(path, fixedClock{now: at(28, 18, 30, 5)})

	none, err := store.Backup(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, store.Save(ctx, sampleHistory(t)))
	backup, err := store.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "app_usage_log.backup_20260228183005.json"), backup)
	want, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
