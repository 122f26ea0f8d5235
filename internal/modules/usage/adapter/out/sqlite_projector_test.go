package out_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usageout "apptrack/internal/modules/usage/adapter/out"
	"apptrack/internal/modules/usage/domain"
)

type indexRow struct {
	Application string
	Category    string
	Seconds     int
	Sessions    int
}

// dayRows reads the index file the way an external SQL client would.
func dayRows(t *testing.T, dbPath, day string) []indexRow {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()
	rows, err := db.Query(`
SELECT application, category, SUM(duration_seconds), COUNT(*)
FROM sessions WHERE day = ?
GROUP BY application, category
ORDER BY SUM(duration_seconds) DESC`, day)
	require.NoError(t, err)
	defer rows.Close()
	out := []indexRow{}
	for rows.Next() {
		var r indexRow
		require.NoError(t, rows.Scan(&r.Application, &r.Category, &r.Seconds, &r.Sessions))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestSQLiteSessionProjectorUpsertAndReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "index", "app_usage_log.db")
	projector, err := usageout.NewSQLiteSessionProjector(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = projector.Close() })

	history := sampleHistory(t)
	sessions := []domain.Session{}
	history.Each(func(_ string, s []domain.Session) { sessions = append(sessions, s...) })
	require.NoError(t, projector.UpsertSessions(ctx, sessions))
	require.NoError(t, projector.UpsertSessions(ctx, sessions[:1]))

	day := dayRows(t, dbPath, "2026-02-25")
	require.Len(t, day, 2)
	assert.Equal(t, indexRow{Application: "code.exe", Category: "development", Seconds: 120, Sessions: 1}, day[0])
	assert.Equal(t, "chrome.exe", day[1].Application)

	require.NoError(t, projector.Reset(ctx))
	assert.Empty(t, dayRows(t, dbPath, "2026-02-25"))
}
