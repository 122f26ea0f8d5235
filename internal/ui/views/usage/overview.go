package usage

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"apptrack/internal/modules/usage/dto"
	"apptrack/internal/ui/theme"
)

const barWidth = 30

// Overview is the summary pane: tracker state, today's total and the
// productivity split.
type Overview struct {
	Status       dto.StatusOutput
	Day          dto.DailyUsageOutput
	Productivity dto.ProductivityOutput
	Now          time.Time
}

func (o Overview) View(width int) string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Tracker") + "\n")
	sb.WriteString(o.trackerLine() + "\n")
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("%d apps, %d sessions recorded", o.Status.TotalApps, o.Status.TotalSessions)) + "\n")
	if !o.Status.LastSavedAt.IsZero() {
		sb.WriteString(theme.Muted.Render("last saved "+o.Status.LastSavedAt.Format("15:04:05")) + "\n")
	}
	if o.Status.LastError != "" {
		sb.WriteString(theme.Bad.Render("! "+o.Status.LastError) + "\n")
	}

	sb.WriteString("\n" + theme.Title.Render("Day "+o.Day.Date) + "\n")
	sb.WriteString(fmt.Sprintf("%s across %d apps\n", FormatSeconds(o.Day.TotalSeconds), len(o.Day.Applications)))

	sb.WriteString("\n" + theme.Title.Render("Productivity") + "\n")
	if o.Productivity.TotalSeconds == 0 {
		sb.WriteString(theme.Muted.Render("no data") + "\n")
	} else {
		sb.WriteString(Bar(o.Productivity.Percentage, barWidth) + fmt.Sprintf(" %.1f%%\n", o.Productivity.Percentage))
		sb.WriteString(theme.Good.Render("productive  ") + FormatSeconds(o.Productivity.ProductiveSeconds) + "\n")
		sb.WriteString(theme.Bad.Render("distraction ") + FormatSeconds(o.Productivity.DistractionSeconds) + "\n")
	}

	if width < 24 {
		width = 24
	}
	return theme.Pane.Width(width - 2).Render(sb.String())
}

func (o Overview) trackerLine() string {
	if !o.Status.Running {
		return theme.Muted.Render("○ idle")
	}
	current := o.Status.Current
	if current == nil {
		return theme.Good.Render("● tracking")
	}
	elapsed := 0
	if !o.Now.IsZero() && o.Now.After(current.Start) {
		elapsed = int(o.Now.Sub(current.Start).Seconds())
	}
	return theme.Good.Render("● "+current.Application) + " " +
		theme.Category(current.Category).Render(current.Category) + " " +
		theme.Muted.Render(FormatSeconds(elapsed))
}

// Bar renders pct (0-100) as a filled gauge of the given width.
func Bar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	return lipgloss.NewStyle().Foreground(theme.Green).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.Surface1).Render(strings.Repeat("░", width-filled))
}

// FormatSeconds renders a duration as "1h 2m", "3m 20s" or "45s".
func FormatSeconds(seconds int) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
