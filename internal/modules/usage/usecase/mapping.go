package usecase

import (
	"apptrack/internal/modules/usage/domain"
	"apptrack/internal/modules/usage/dto"
)

func toSessionOutput(s domain.Session) dto.SessionOutput {
	out := dto.SessionOutput{
		ID:                s.ID,
		Application:       s.Application,
		Category:          string(s.Category),
		Start:             s.Start,
		DurationSeconds:   s.DurationSeconds,
		WindowTitle:       s.WindowTitle,
		PID:               s.PID,
		ProductivityScore: s.ProductivityScore,
	}
	if s.End != nil {
		end := *s.End
		out.End = &end
	}
	return out
}

func toApplicationOutput(summary domain.AppSummary, sessions []domain.Session) dto.ApplicationOutput {
	out := dto.ApplicationOutput{
		Name:           summary.Name,
		Category:       string(summary.Category),
		TotalSessions:  summary.TotalSessions,
		TotalSeconds:   summary.TotalSeconds,
		AverageSeconds: summary.AverageSeconds,
		MedianSeconds:  summary.MedianSeconds,
		FirstUsed:      summary.FirstUsed,
		LastUsed:       summary.LastUsed,
	}
	for _, s := range sessions {
		out.Sessions = append(out.Sessions, toSessionOutput(s))
	}
	return out
}

func toHistoryOutput(h *domain.History) dto.HistoryOutput {
	out := dto.HistoryOutput{Applications: []dto.ApplicationOutput{}, TotalSessions: h.SessionCount()}
	h.Each(func(app string, sessions []domain.Session) {
		out.Applications = append(out.Applications, toApplicationOutput(domain.Summarize(app, sessions), sessions))
	})
	return out
}

func toAppUsageOutputs(totals []domain.AppTotal) []dto.AppUsageOutput {
	out := make([]dto.AppUsageOutput, 0, len(totals))
	for _, t := range totals {
		out = append(out, dto.AppUsageOutput{
			Application: t.Application,
			Category:    string(t.Category),
			Seconds:     t.Seconds,
			Sessions:    t.Sessions,
			Duration:    domain.FormatDuration(t.Seconds),
		})
	}
	return out
}

func toCategoryOutputs(totals []domain.CategoryTotal) []dto.CategoryOutput {
	out := make([]dto.CategoryOutput, 0, len(totals))
	for _, c := range totals {
		out = append(out, dto.CategoryOutput{
			Category:     string(c.Category),
			Title:        c.Category.Title(),
			TotalSeconds: c.TotalSeconds,
			SessionCount: c.SessionCount,
			Applications: append([]string(nil), c.Applications...),
			Duration:     domain.FormatDuration(c.TotalSeconds),
		})
	}
	return out
}

func toStatsOutput(snap domain.StatsSnapshot) dto.StatsOutput {
	out := dto.StatsOutput{
		TotalSessions: snap.Summary.TotalSessions,
		TotalApps:     snap.Summary.TotalApps,
		PeriodDays:    snap.Summary.Period.Days,
		TopApps:       make([]dto.ApplicationOutput, 0, len(snap.TopApps)),
		Categories:    toCategoryOutputs(snap.Categories),
		Productivity: dto.ProductivityOutput{
			TotalSeconds:       snap.Productivity.TotalSeconds,
			ProductiveSeconds:  snap.Productivity.ProductiveSeconds,
			DistractionSeconds: snap.Productivity.DistractionSeconds,
			Percentage:         snap.Productivity.Percentage,
		},
		PeakHours:      make([]dto.HourOutput, 0, len(snap.PeakHours)),
		WeekdaySeconds: snap.WeekdaySeconds,
		WeekendSeconds: snap.WeekendSeconds,
		Hourly:         snap.Hourly[:],
	}
	if !snap.Summary.Period.Empty() {
		out.PeriodStart = snap.Summary.Period.Start.Format(domain.DateLayout)
		out.PeriodEnd = snap.Summary.Period.End.Format(domain.DateLayout)
	}
	for _, app := range snap.TopApps {
		out.TopApps = append(out.TopApps, toApplicationOutput(app, nil))
	}
	for _, h := range snap.PeakHours {
		out.PeakHours = append(out.PeakHours, dto.HourOutput{Hour: h.Hour, Seconds: h.Seconds})
	}
	return out
}
