package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"

	// DesktopApplication stands in for "no foreground window".
	DesktopApplication = "Desktop"
	// UnknownProcess replaces a window whose process could not be resolved.
	UnknownProcess = "Unknown Process"
	// UntrackedApplication holds flat legacy records that carry no app name.
	UntrackedApplication = "untracked"
)

var ErrSessionOpen = errors.New("session is still open")

// Sample is one observation of the focused window.
type Sample struct {
	Application  string
	WindowTitle  string
	PID          int
	ProcessStart time.Time
	SwitchCount  int
	IdleSeconds  int
}

func DesktopSample() Sample {
	return Sample{Application: DesktopApplication, WindowTitle: DesktopApplication}
}

func PlaceholderSample(title string, pid int) Sample {
	return Sample{Application: UnknownProcess, WindowTitle: title, PID: pid}
}

type Session struct {
	ID                string
	Application       string
	Category          Category
	Start             time.Time
	End               *time.Time
	DurationSeconds   int
	WindowTitle       string
	PID               int
	IdleSeconds       int
	SwitchCount       int
	ProductivityScore *int
}

func SessionID(application string, start time.Time) string {
	return fmt.Sprintf("%s_%d", application, start.Unix())
}

// OpenSession starts a session at the given instant, truncated to whole
// seconds so persisted timestamps round-trip exactly.
func OpenSession(sample Sample, at time.Time) Session {
	start := at.Truncate(time.Second)
	return Session{
		ID:          SessionID(sample.Application, start),
		Application: sample.Application,
		Category:    Categorize(sample.Application),
		Start:       start,
		WindowTitle: sample.WindowTitle,
		PID:         sample.PID,
		IdleSeconds: sample.IdleSeconds,
		SwitchCount: sample.SwitchCount,
	}
}

func (s Session) Closed() bool {
	return s.End != nil
}

// Close returns a closed copy of s. An end before the start is clamped.
func (s Session) Close(at time.Time, score *int) Session {
	end := at.Truncate(time.Second)
	if end.Before(s.Start) {
		end = s.Start
	}
	closed := s
	closed.End = &end
	closed.DurationSeconds = int(end.Sub(s.Start) / time.Second)
	if score != nil {
		v := *score
		closed.ProductivityScore = &v
	}
	return closed
}

func (s Session) Clone() Session {
	out := s
	if s.End != nil {
		end := *s.End
		out.End = &end
	}
	if s.ProductivityScore != nil {
		score := *s.ProductivityScore
		out.ProductivityScore = &score
	}
	return out
}

type SessionMetadata struct {
	DayOfWeek string
	Hour      int
	IsWeekend bool
	TimeOfDay string
}

func (s Session) Metadata() SessionMetadata {
	return SessionMetadata{
		DayOfWeek: s.Start.Weekday().String(),
		Hour:      s.Start.Hour(),
		IsWeekend: IsWeekend(s.Start),
		TimeOfDay: TimeOfDay(s.Start.Hour()),
	}
}

func IsWeekend(t time.Time) bool {
	day := t.Weekday()
	return day == time.Saturday || day == time.Sunday
}

func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}

// FormatDuration renders seconds as "1h 2m 3s", "2m 3s" or "3s".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
