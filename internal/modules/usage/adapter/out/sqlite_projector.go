package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"apptrack/internal/modules/usage/domain"

	_ "modernc.org/sqlite"
)

// SQLiteSessionProjector mirrors closed sessions into a queryable index.
// The JSON history stays the source of truth; the index can be rebuilt.
type SQLiteSessionProjector struct {
	db *sql.DB
}

func NewSQLiteSessionProjector(dbPath string) (*SQLiteSessionProjector, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	projector := &SQLiteSessionProjector{db: db}
	if err := projector.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return projector, nil
}

func (s *SQLiteSessionProjector) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  application TEXT NOT NULL,
  category TEXT NOT NULL,
  start_at TEXT NOT NULL,
  end_at TEXT NOT NULL,
  day TEXT NOT NULL,
  hour INTEGER NOT NULL,
  duration_seconds INTEGER NOT NULL,
  window_title TEXT,
  pid INTEGER,
  productivity_score INTEGER
);
CREATE INDEX IF NOT EXISTS sessions_day ON sessions(day);
CREATE INDEX IF NOT EXISTS sessions_application ON sessions(application);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (s *SQLiteSessionProjector) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("reset sessions: %w", err)
	}
	return nil
}

func (s *SQLiteSessionProjector) UpsertSessions(ctx context.Context, sessions []domain.Session) error {
	const stmt = `
INSERT INTO sessions (id, application, category, start_at, end_at, day, hour, duration_seconds, window_title, pid, productivity_score)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  application=excluded.application,
  category=excluded.category,
  start_at=excluded.start_at,
  end_at=excluded.end_at,
  day=excluded.day,
  hour=excluded.hour,
  duration_seconds=excluded.duration_seconds,
  window_title=excluded.window_title,
  pid=excluded.pid,
  productivity_score=excluded.productivity_score;
`
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()
	for _, session := range sessions {
		if session.End == nil {
			continue
		}
		var score sql.NullInt64
		if session.ProductivityScore != nil {
			score = sql.NullInt64{Int64: int64(*session.ProductivityScore), Valid: true}
		}
		_, err := tx.ExecContext(ctx, stmt,
			session.ID,
			session.Application,
			string(session.Category),
			session.Start.Format(domain.TimestampLayout),
			session.End.Format(domain.TimestampLayout),
			session.Start.Format(domain.DateLayout),
			session.Start.Hour(),
			session.DurationSeconds,
			session.WindowTitle,
			session.PID,
			score,
		)
		if err != nil {
			return fmt.Errorf("upsert session %s: %w", session.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (s *SQLiteSessionProjector) Close() error {
	return s.db.Close()
}
