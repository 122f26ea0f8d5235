package out

import (
	"context"
	"time"

	"apptrack/internal/modules/usage/domain"
)

type Probe interface {
	Sample(ctx context.Context) (domain.Sample, error)
}

// HistoryStore persists the full history. Load and Save may return a
// usable value together with a non-nil diagnostic error.
type HistoryStore interface {
	Load(ctx context.Context) (*domain.History, error)
	Save(ctx context.Context, history *domain.History) error
	Backup(ctx context.Context) (string, error)
}

// Checkpointer is implemented by stores that keep a crash-recovery record
// of the open session.
type Checkpointer interface {
	Checkpoint(ctx context.Context, open domain.Session) error
	ClearCheckpoint(ctx context.Context) error
}

type SessionProjector interface {
	Reset(ctx context.Context) error
	UpsertSessions(ctx context.Context, sessions []domain.Session) error
}

// Exporter renders a history snapshot in one output format. report is the
// formatted text report for the same snapshot.
type Exporter interface {
	Format() string
	ContentType() string
	Extension() string
	Export(history *domain.History, report string, generatedAt time.Time) ([]byte, error)
}

type Observer interface {
	SessionOpened(category string)
	SessionClosed(category string, seconds int, retained bool)
	PollTick()
	ProbeFailed()
	SaveFailed()
	TrackerRunning(running bool)
}
