package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"apptrack/internal/modules/usage/domain"
	usageout "apptrack/internal/modules/usage/port/out"
	"apptrack/internal/platform/clock"
)

const clockLayout = "15:04:05"

// flatRecord is one entry of the legacy array file. App is absent in files
// written by older trackers.
type flatRecord struct {
	Date         string `json:"date"`
	Start        string `json:"start"`
	End          string `json:"end"`
	DurationSecs int    `json:"duration_secs"`
	App          string `json:"app,omitempty"`
}

func toFlatRecord(s domain.Session, end time.Time) flatRecord {
	duration := int(end.Sub(s.Start) / time.Second)
	if duration < 0 {
		duration = 0
	}
	return flatRecord{
		Date:         s.Start.Format(domain.DateLayout),
		Start:        s.Start.Format(clockLayout),
		End:          end.Format(clockLayout),
		DurationSecs: duration,
		App:          s.Application,
	}
}

func (r flatRecord) toSession() (domain.Session, error) {
	start, err := time.ParseInLocation(domain.DateLayout+" "+clockLayout, strings.TrimSpace(r.Date)+" "+strings.TrimSpace(r.Start), time.Local)
	if err != nil {
		return domain.Session{}, malformed("record %s %s", r.Date, r.Start)
	}
	app := strings.TrimSpace(r.App)
	if app == "" {
		app = domain.UntrackedApplication
	}
	duration := r.DurationSecs
	if duration < 0 {
		duration = 0
	}
	session := domain.OpenSession(domain.Sample{Application: app}, start)
	return session.Close(start.Add(time.Duration(duration)*time.Second), nil), nil
}

// FlatHistoryStore reads and writes the legacy single-array file. It keeps
// an in-progress record of the open session and recovers it on load when
// the record lasted at least minSeconds.
type FlatHistoryStore struct {
	path       string
	clock      clock.Clock
	minSeconds int
}

func NewFlatHistoryStore(path string, clk clock.Clock, minSessionSeconds int) usageout.HistoryStore {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &FlatHistoryStore{path: path, clock: clk, minSeconds: minSessionSeconds}
}

func CheckpointPath(historyPath string) string {
	return basePath(historyPath) + ".inprogress.json"
}

func (s *FlatHistoryStore) checkpointPath() string {
	return CheckpointPath(s.path)
}

func (s *FlatHistoryStore) Load(ctx context.Context) (*domain.History, error) {
	history := domain.NewHistory()
	payload, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		records := []flatRecord{}
		if err := json.Unmarshal(payload, &records); err != nil {
			return domain.NewHistory(), fmt.Errorf("load %s: %w", s.path, malformed("decode records: %v", err))
		}
		for _, record := range records {
			session, err := record.toSession()
			if err != nil {
				return domain.NewHistory(), fmt.Errorf("load %s: %w", s.path, err)
			}
			if err := history.Append(session); err != nil {
				return domain.NewHistory(), err
			}
		}
	case os.IsNotExist(err):
	default:
		return domain.NewHistory(), fmt.Errorf("read history: %w", err)
	}

	recovered, err := s.recover(ctx, history)
	if err != nil {
		return history, err
	}
	if recovered {
		if err := s.Save(ctx, history); err != nil {
			return history, fmt.Errorf("rewrite recovered history: %w", err)
		}
	}
	return history, nil
}

// recover appends the in-progress record, if any, to history. A record
// shorter than the minimum session length is discarded with its file.
func (s *FlatHistoryStore) recover(ctx context.Context, history *domain.History) (bool, error) {
	payload, err := os.ReadFile(s.checkpointPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read checkpoint: %w", err)
	}
	record := flatRecord{}
	if err := json.Unmarshal(payload, &record); err != nil {
		return false, fmt.Errorf("decode checkpoint: %w", malformed("%v", err))
	}
	session, err := record.toSession()
	if err != nil {
		return false, fmt.Errorf("decode checkpoint: %w", err)
	}
	if session.DurationSeconds < s.minSeconds {
		return false, s.ClearCheckpoint(ctx)
	}
	if err := history.Append(session); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FlatHistoryStore) Save(ctx context.Context, history *domain.History) error {
	records := []flatRecord{}
	history.Each(func(_ string, sessions []domain.Session) {
		for _, session := range sessions {
			if session.End == nil {
				continue
			}
			records = append(records, toFlatRecord(session, *session.End))
		}
	})
	payload, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if _, err := copyFile(s.path, s.path+".bak"); err != nil {
		return fmt.Errorf("write bak: %w", err)
	}
	if err := writeFileAtomic(s.path, payload); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return s.ClearCheckpoint(ctx)
}

func (s *FlatHistoryStore) Backup(_ context.Context) (string, error) {
	target := backupPath(s.path, s.clock.Now().Format(backupStampLayout))
	copied, err := copyFile(s.path, target)
	if err != nil {
		return "", fmt.Errorf("backup history: %w", err)
	}
	if !copied {
		return "", nil
	}
	return target, nil
}

// Checkpoint overwrites the in-progress record with open, ended now.
func (s *FlatHistoryStore) Checkpoint(_ context.Context, open domain.Session) error {
	record := toFlatRecord(open, s.clock.Now().Truncate(time.Second))
	payload, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := writeFileAtomic(s.checkpointPath(), payload); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

func (s *FlatHistoryStore) ClearCheckpoint(_ context.Context) error {
	if err := os.Remove(s.checkpointPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}
