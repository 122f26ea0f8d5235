package out_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"apptrack/internal/modules/usage/domain"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func at(day, hour, minute, second int) time.Time {
	return time.Date(2026, 2, day, hour, minute, second, 0, time.Local)
}

func closedSession(t *testing.T, app string, start time.Time, seconds int) domain.Session {
	t.Helper()
	s := domain.OpenSession(domain.Sample{Application: app, WindowTitle: app + " - window", PID: 100}, start)
	score := s.Category.ProductivityScore()
	return s.Close(start.Add(time.Duration(seconds)*time.Second), &score)
}

func sampleHistory(t *testing.T) *domain.History {
	t.Helper()
	h := domain.NewHistory()
	require.NoError(t, h.Append(closedSession(t, "code.exe", at(25, 9, 0, 0), 120)))
	require.NoError(t, h.Append(closedSession(t, "chrome.exe", at(25, 9, 5, 0), 50)))
	require.NoError(t, h.Append(closedSession(t, "code.exe", at(28, 14, 0, 0), 80)))
	return h
}
