package service

import (
	"sort"
	"time"

	"apptrack/internal/modules/usage/domain"
	"apptrack/internal/platform/clock"
)

const ReportTopApps = 5

// Analyzer answers queries over a fixed history snapshot. It never sees
// sessions appended after it was built.
type Analyzer struct {
	history *domain.History
	clock   clock.Clock
}

func NewAnalyzer(snapshot *domain.History, clock clock.Clock) *Analyzer {
	if snapshot == nil {
		snapshot = domain.NewHistory()
	}
	return &Analyzer{history: snapshot, clock: clock}
}

func (a *Analyzer) Today() time.Time {
	return a.clock.Now()
}

func (a *Analyzer) DailyUsage(date time.Time) []domain.AppTotal {
	return domain.DailyUsage(a.history, date.Format(domain.DateLayout))
}

func (a *Analyzer) TopApplications(n int) []domain.AppTotal {
	return domain.TopApplications(a.history, n)
}

func (a *Analyzer) CategoryAnalysis() []domain.CategoryTotal {
	return domain.CategoryTotals(a.history)
}

func (a *Analyzer) Productivity() domain.ProductivityMetrics {
	return domain.Productivity(a.history)
}

func (a *Analyzer) Snapshot() domain.StatsSnapshot {
	return domain.BuildSnapshot(a.history)
}

func (a *Analyzer) History() *domain.History {
	return a.history
}

// FormattedReport renders the plain-text usage summary shown by every
// presentation surface.
func (a *Analyzer) FormattedReport() string {
	now := a.clock.Now()
	w := reportWriter{}
	w.linef("Usage Report - %s", now.Format(domain.TimestampLayout))
	w.rule("=", 60)

	if a.history.Empty() {
		w.line("")
		w.line("No usage data available.")
		return w.String()
	}

	w.section("Top 5 Apps (All Time):")
	for i, total := range a.TopApplications(ReportTopApps) {
		w.linef("%d. %s (%s): %s (%d sessions)", i+1, total.Application, total.Category, domain.FormatDuration(total.Seconds), total.Sessions)
	}

	w.section("Today's Usage:")
	today := a.DailyUsage(now)
	if len(today) == 0 {
		w.line("No usage data for today.")
	}
	sort.SliceStable(today, func(i, j int) bool { return today[i].Seconds > today[j].Seconds })
	for _, total := range today {
		w.linef("- %s (%s): %s", total.Application, total.Category, domain.FormatDuration(total.Seconds))
	}

	w.section("Category Breakdown:")
	categories := a.CategoryAnalysis()
	sort.SliceStable(categories, func(i, j int) bool { return categories[i].TotalSeconds > categories[j].TotalSeconds })
	for _, c := range categories {
		w.linef("- %s: %s (%d apps, %d sessions)", c.Category.Title(), domain.FormatDuration(c.TotalSeconds), len(c.Applications), c.SessionCount)
	}

	metrics := a.Productivity()
	if metrics.TotalSeconds > 0 {
		w.section("Productivity Metrics:")
		w.linef("- Total Time: %s", domain.FormatDuration(metrics.TotalSeconds))
		w.linef("- Productive Time: %s", domain.FormatDuration(metrics.ProductiveSeconds))
		w.linef("- Productivity: %.1f%%", metrics.Percentage)
		w.linef("- Distraction Time: %s", domain.FormatDuration(metrics.DistractionSeconds))
	}
	return w.String()
}
