package domain

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	SnapshotTopApps   = 10
	SnapshotPeakHours = 3
)

type AppSummary struct {
	Name           string
	Category       Category
	TotalSessions  int
	TotalSeconds   int
	AverageSeconds float64
	// MedianSeconds is the lower median of session durations.
	MedianSeconds float64
	FirstUsed     time.Time
	LastUsed      time.Time
}

type AppTotal struct {
	Application string
	Category    Category
	Seconds     int
	Sessions    int
}

type DayTotal struct {
	Date    string
	Seconds int
}

type HourTotal struct {
	Hour    int
	Seconds int
}

type CategoryTotal struct {
	Category     Category
	TotalSeconds int
	SessionCount int
	Applications []string
}

type ProductivityMetrics struct {
	TotalSeconds       int
	ProductiveSeconds  int
	DistractionSeconds int
	Percentage         float64
}

type TrackingPeriod struct {
	Start time.Time
	End   time.Time
	Days  int
}

func (p TrackingPeriod) Empty() bool {
	return p.Start.IsZero()
}

type HistorySummary struct {
	TotalSessions int
	TotalApps     int
	Period        TrackingPeriod
}

// StatsSnapshot is derived from a History and can always be rebuilt from it.
type StatsSnapshot struct {
	Summary        HistorySummary
	TopApps        []AppSummary
	Categories     []CategoryTotal
	Productivity   ProductivityMetrics
	PeakHours      []HourTotal
	WeekdaySeconds int
	WeekendSeconds int
	Hourly         [24]int
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func totalSeconds(sessions []Session) int {
	total := 0
	for _, s := range sessions {
		total += s.DurationSeconds
	}
	return total
}

// Summarize aggregates one application's sessions.
func Summarize(application string, sessions []Session) AppSummary {
	summary := AppSummary{Name: application, Category: CategoryUnknown, TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		return summary
	}
	summary.Category = sessions[0].Category
	durations := make([]float64, len(sessions))
	for i, s := range sessions {
		durations[i] = float64(s.DurationSeconds)
		summary.TotalSeconds += s.DurationSeconds
		if summary.FirstUsed.IsZero() || s.Start.Before(summary.FirstUsed) {
			summary.FirstUsed = s.Start
		}
		if s.End != nil && s.End.After(summary.LastUsed) {
			summary.LastUsed = *s.End
		}
	}
	summary.AverageSeconds = Round2(stat.Mean(durations, nil))
	sort.Float64s(durations)
	summary.MedianSeconds = stat.Quantile(0.5, stat.Empirical, durations, nil)
	return summary
}

func Summaries(h *History) []AppSummary {
	out := make([]AppSummary, 0, h.Len())
	h.Each(func(app string, sessions []Session) {
		if len(sessions) > 0 {
			out = append(out, Summarize(app, sessions))
		}
	})
	return out
}

// DailyTotals buckets durations by the local calendar date of each session
// start, in first-seen order.
func DailyTotals(sessions []Session) []DayTotal {
	index := map[string]int{}
	out := []DayTotal{}
	for _, s := range sessions {
		date := s.Start.Format(DateLayout)
		i, ok := index[date]
		if !ok {
			i = len(out)
			index[date] = i
			out = append(out, DayTotal{Date: date})
		}
		out[i].Seconds += s.DurationSeconds
	}
	return out
}

// HourlyTotals buckets durations by start hour.
func HourlyTotals(sessions []Session) [24]int {
	var hours [24]int
	for _, s := range sessions {
		hours[s.Start.Hour()] += s.DurationSeconds
	}
	return hours
}

func CombinedHourly(h *History) [24]int {
	var hours [24]int
	h.Each(func(_ string, sessions []Session) {
		for hour, seconds := range HourlyTotals(sessions) {
			hours[hour] += seconds
		}
	})
	return hours
}

func appTotals(h *History) []AppTotal {
	out := make([]AppTotal, 0, h.Len())
	h.Each(func(app string, sessions []Session) {
		category := CategoryUnknown
		if len(sessions) > 0 {
			category = sessions[0].Category
		}
		out = append(out, AppTotal{Application: app, Category: category, Seconds: totalSeconds(sessions), Sessions: len(sessions)})
	})
	return out
}

// TopApplications ranks applications by total duration. Equal totals keep
// history order. n <= 0 yields an empty slice.
func TopApplications(h *History, n int) []AppTotal {
	if n <= 0 {
		return []AppTotal{}
	}
	totals := appTotals(h)
	sort.SliceStable(totals, func(i, j int) bool { return totals[i].Seconds > totals[j].Seconds })
	if n < len(totals) {
		totals = totals[:n]
	}
	return totals
}

// DailyUsage returns per-application seconds for date (YYYY-MM-DD),
// omitting applications without usage that day.
func DailyUsage(h *History, date string) []AppTotal {
	out := []AppTotal{}
	h.Each(func(app string, sessions []Session) {
		total := AppTotal{Application: app, Category: CategoryUnknown}
		if len(sessions) > 0 {
			total.Category = sessions[0].Category
		}
		for _, s := range sessions {
			if s.Start.Format(DateLayout) == date {
				total.Seconds += s.DurationSeconds
				total.Sessions++
			}
		}
		if total.Seconds > 0 {
			out = append(out, total)
		}
	})
	return out
}

// CategoryTotals groups applications by category in first-appearance order.
func CategoryTotals(h *History) []CategoryTotal {
	index := map[Category]int{}
	out := []CategoryTotal{}
	for _, total := range appTotals(h) {
		if total.Sessions == 0 {
			continue
		}
		i, ok := index[total.Category]
		if !ok {
			i = len(out)
			index[total.Category] = i
			out = append(out, CategoryTotal{Category: total.Category, Applications: []string{}})
		}
		out[i].TotalSeconds += total.Seconds
		out[i].SessionCount += total.Sessions
		out[i].Applications = append(out[i].Applications, total.Application)
	}
	return out
}

func Productivity(h *History) ProductivityMetrics {
	metrics := ProductivityMetrics{}
	for _, total := range appTotals(h) {
		metrics.TotalSeconds += total.Seconds
		if total.Category.Productive() {
			metrics.ProductiveSeconds += total.Seconds
		}
	}
	metrics.DistractionSeconds = metrics.TotalSeconds - metrics.ProductiveSeconds
	if metrics.TotalSeconds > 0 {
		metrics.Percentage = Round2(100 * float64(metrics.ProductiveSeconds) / float64(metrics.TotalSeconds))
	}
	return metrics
}

// PeakHours returns the n busiest hours, ties going to the earlier hour.
func PeakHours(hourly [24]int, n int) []HourTotal {
	hours := make([]HourTotal, 24)
	for hour, seconds := range hourly {
		hours[hour] = HourTotal{Hour: hour, Seconds: seconds}
	}
	sort.SliceStable(hours, func(i, j int) bool { return hours[i].Seconds > hours[j].Seconds })
	if n < 0 {
		n = 0
	}
	if n > len(hours) {
		n = len(hours)
	}
	return hours[:n]
}

// WeekSplit sums durations of sessions started on weekdays and weekends.
func WeekSplit(h *History) (weekday, weekend int) {
	h.Each(func(_ string, sessions []Session) {
		for _, s := range sessions {
			if IsWeekend(s.Start) {
				weekend += s.DurationSeconds
			} else {
				weekday += s.DurationSeconds
			}
		}
	})
	return weekday, weekend
}

func Period(h *History) TrackingPeriod {
	period := TrackingPeriod{}
	h.Each(func(_ string, sessions []Session) {
		for _, s := range sessions {
			if period.Start.IsZero() || s.Start.Before(period.Start) {
				period.Start = s.Start
			}
			if s.End != nil && s.End.After(period.End) {
				period.End = *s.End
			}
		}
	})
	if period.Start.IsZero() {
		return TrackingPeriod{}
	}
	if period.End.IsZero() {
		period.End = period.Start
	}
	period.Days = int(period.End.Sub(period.Start).Hours()/24) + 1
	return period
}

func Summary(h *History) HistorySummary {
	return HistorySummary{TotalSessions: h.SessionCount(), TotalApps: h.Len(), Period: Period(h)}
}

func BuildSnapshot(h *History) StatsSnapshot {
	summaries := Summaries(h)
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].TotalSeconds > summaries[j].TotalSeconds })
	if len(summaries) > SnapshotTopApps {
		summaries = summaries[:SnapshotTopApps]
	}
	hourly := CombinedHourly(h)
	peaks := []HourTotal{}
	if !h.Empty() {
		peaks = PeakHours(hourly, SnapshotPeakHours)
	}
	weekday, weekend := WeekSplit(h)
	return StatsSnapshot{
		Summary:        Summary(h),
		TopApps:        summaries,
		Categories:     CategoryTotals(h),
		Productivity:   Productivity(h),
		PeakHours:      peaks,
		WeekdaySeconds: weekday,
		WeekendSeconds: weekend,
		Hourly:         hourly,
	}
}
