package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"apptrack/internal/modules/usage/domain"
	usageout "apptrack/internal/modules/usage/port/out"
	"apptrack/internal/platform/clock"
)

const backupStampLayout = "20060102150405"

// JSONHistoryStore keeps the versioned history document and its sibling
// statistics file.
type JSONHistoryStore struct {
	path  string
	clock clock.Clock
}

func NewJSONHistoryStore(path string, clk clock.Clock) usageout.HistoryStore {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &JSONHistoryStore{path: path, clock: clk}
}

func StatsPath(historyPath string) string {
	return basePath(historyPath) + ".stats.json"
}

func (s *JSONHistoryStore) Load(_ context.Context) (*domain.History, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewHistory(), nil
		}
		return domain.NewHistory(), fmt.Errorf("read history: %w", err)
	}
	history, err := decodeHistory(payload)
	if err != nil {
		return domain.NewHistory(), fmt.Errorf("load %s: %w", s.path, err)
	}
	return history, nil
}

func (s *JSONHistoryStore) Save(_ context.Context, history *domain.History) error {
	now := s.clock.Now()
	payload, err := json.MarshalIndent(newHistoryDocument(history, now), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := writeFileAtomic(s.path, payload); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	stats, err := json.MarshalIndent(newStatsDocument(history, now), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := writeFileAtomic(StatsPath(s.path), stats); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

// Backup copies the history file next to itself. It returns an empty path
// when there is nothing to back up.
func (s *JSONHistoryStore) Backup(_ context.Context) (string, error) {
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
