package out

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"apptrack/internal/modules/usage/domain"
	apperrors "apptrack/internal/platform/errors"
)

const documentVersion = "2.0"

type sessionMetadataRecord struct {
	DayOfWeek string `json:"day_of_week"`
	Hour      int    `json:"hour"`
	IsWeekend bool   `json:"is_weekend"`
	TimeOfDay string `json:"time_of_day"`
}

type sessionRecord struct {
	SessionID         string                `json:"session_id"`
	Start             string                `json:"start"`
	End               *string               `json:"end"`
	DurationSeconds   int                   `json:"duration_seconds"`
	WindowTitle       string                `json:"window_title"`
	PID               int                   `json:"pid"`
	Category          string                `json:"category"`
	ProductivityScore *int                  `json:"productivity_score"`
	IdleTime          int                   `json:"idle_time"`
	SwitchCount       int                   `json:"switch_count"`
	Metadata          sessionMetadataRecord `json:"metadata"`
}

type trackingPeriodRecord struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
	Days  int     `json:"days"`
}

type metadataRecord struct {
	Version        string               `json:"version"`
	LastUpdated    string               `json:"last_updated"`
	TotalSessions  int                  `json:"total_sessions"`
	TotalApps      int                  `json:"total_apps"`
	TrackingPeriod trackingPeriodRecord `json:"tracking_period"`
}

type applicationRecord struct {
	Name                   string                              `json:"name"`
	Category               string                              `json:"category"`
	TotalSessions          int                                 `json:"total_sessions"`
	TotalDuration          int                                 `json:"total_duration"`
	AverageSessionDuration float64                             `json:"average_session_duration"`
	MedianSessionDuration  float64                             `json:"median_session_duration"`
	FirstUsed              *string                             `json:"first_used"`
	LastUsed               *string                             `json:"last_used"`
	Sessions               []sessionRecord                     `json:"sessions"`
	DailyUsage             *orderedmap.OrderedMap[string, int] `json:"daily_usage"`
	HourlyPattern          *orderedmap.OrderedMap[string, int] `json:"hourly_pattern"`
}

type historyDocument struct {
	Metadata     metadataRecord                                    `json:"metadata"`
	Applications *orderedmap.OrderedMap[string, applicationRecord] `json:"applications"`
}

type topAppRecord struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	TotalDuration  int     `json:"total_duration"`
	TotalSessions  int     `json:"total_sessions"`
	AverageSession float64 `json:"average_session"`
}

type categoryRecord struct {
	TotalDuration int `json:"total_duration"`
	TotalSessions int `json:"total_sessions"`
	AppCount      int `json:"app_count"`
}

type productivityRecord struct {
	TotalTime              int     `json:"total_time"`
	ProductiveTime         int     `json:"productive_time"`
	ProductivityPercentage float64 `json:"productivity_percentage"`
	DistractionTime        int     `json:"distraction_time"`
}

type peakHourRecord struct {
	Hour     int `json:"hour"`
	Duration int `json:"duration"`
}

type timePatternsRecord struct {
	PeakHours          []peakHourRecord                    `json:"peak_hours"`
	WeekendUsage       int                                 `json:"weekend_usage"`
	WeekdayUsage       int                                 `json:"weekday_usage"`
	HourlyDistribution *orderedmap.OrderedMap[string, int] `json:"hourly_distribution"`
}

type statsDocument struct {
	Summary             metadataRecord                                 `json:"summary"`
	TopApps             []topAppRecord                                 `json:"top_apps"`
	CategoryBreakdown   *orderedmap.OrderedMap[string, categoryRecord] `json:"category_breakdown"`
	ProductivityMetrics productivityRecord                             `json:"productivity_metrics"`
	TimePatterns        timePatternsRecord                             `json:"time_patterns"`
}

// ─── encoding ────────────────────────────────────────────────────────────────

func formatTimestamp(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	v := t.Format(domain.TimestampLayout)
	return &v
}

func formatDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	v := t.Format(domain.DateLayout)
	return &v
}

func toSessionRecord(s domain.Session) sessionRecord {
	meta := s.Metadata()
	var end *string
	if s.End != nil {
		end = formatTimestamp(*s.End)
	}
	return sessionRecord{
		SessionID:         s.ID,
		Start:             s.Start.Format(domain.TimestampLayout),
		End:               end,
		DurationSeconds:   s.DurationSeconds,
		WindowTitle:       s.WindowTitle,
		PID:               s.PID,
		Category:          string(s.Category),
		ProductivityScore: s.ProductivityScore,
		IdleTime:          s.IdleSeconds,
		SwitchCount:       s.SwitchCount,
		Metadata: sessionMetadataRecord{
			DayOfWeek: meta.DayOfWeek,
			Hour:      meta.Hour,
			IsWeekend: meta.IsWeekend,
			TimeOfDay: meta.TimeOfDay,
		},
	}
}

func hourlyMap(hours [24]int) *orderedmap.OrderedMap[string, int] {
	m := orderedmap.New[string, int](24)
	for hour, seconds := range hours {
		m.Set(strconv.Itoa(hour), seconds)
	}
	return m
}

func metadataFor(h *domain.History, now time.Time) metadataRecord {
	summary := domain.Summary(h)
	return metadataRecord{
		Version:       documentVersion,
		LastUpdated:   now.Format(domain.TimestampLayout),
		TotalSessions: summary.TotalSessions,
		TotalApps:     summary.TotalApps,
		TrackingPeriod: trackingPeriodRecord{
			Start: formatDate(summary.Period.Start),
			End:   formatDate(summary.Period.End),
			Days:  summary.Period.Days,
		},
	}
}

func newHistoryDocument(h *domain.History, now time.Time) historyDocument {
	doc := historyDocument{
		Metadata:     metadataFor(h, now),
		Applications: orderedmap.New[string, applicationRecord](),
	}
	h.Each(func(app string, sessions []domain.Session) {
		if len(sessions) == 0 {
			return
		}
		summary := domain.Summarize(app, sessions)
		record := applicationRecord{
			Name:                   app,
			Category:               string(summary.Category),
			TotalSessions:          summary.TotalSessions,
			TotalDuration:          summary.TotalSeconds,
			AverageSessionDuration: summary.AverageSeconds,
			MedianSessionDuration:  summary.MedianSeconds,
			FirstUsed:              formatTimestamp(summary.FirstUsed),
			LastUsed:               formatTimestamp(summary.LastUsed),
			Sessions:               make([]sessionRecord, 0, len(sessions)),
			DailyUsage:             orderedmap.New[string, int](),
			HourlyPattern:          hourlyMap(domain.HourlyTotals(sessions)),
		}
		for _, s := range sessions {
			record.Sessions = append(record.Sessions, toSessionRecord(s))
		}
		for _, day := range domain.DailyTotals(sessions) {
			record.DailyUsage.Set(day.Date, day.Seconds)
		}
		doc.Applications.Set(app, record)
	})
	return doc
}

func newStatsDocument(h *domain.History, now time.Time) statsDocument {
	snap := domain.BuildSnapshot(h)
	doc := statsDocument{
		Summary:           metadataFor(h, now),
		TopApps:           make([]topAppRecord, 0, len(snap.TopApps)),
		CategoryBreakdown: orderedmap.New[string, categoryRecord](),
		ProductivityMetrics: productivityRecord{
			TotalTime:              snap.Productivity.TotalSeconds,
			ProductiveTime:         snap.Productivity.ProductiveSeconds,
			ProductivityPercentage: snap.Productivity.Percentage,
			DistractionTime:        snap.Productivity.DistractionSeconds,
		},
		TimePatterns: timePatternsRecord{
			PeakHours:          make([]peakHourRecord, 0, len(snap.PeakHours)),
			WeekendUsage:       snap.WeekendSeconds,
			WeekdayUsage:       snap.WeekdaySeconds,
			HourlyDistribution: hourlyMap(snap.Hourly),
		},
	}
	for _, app := range snap.TopApps {
		doc.TopApps = append(doc.TopApps, topAppRecord{
			Name:           app.Name,
			Category:       string(app.Category),
			TotalDuration:  app.TotalSeconds,
			TotalSessions:  app.TotalSessions,
			AverageSession: app.AverageSeconds,
		})
	}
	for _, c := range snap.Categories {
		doc.CategoryBreakdown.Set(string(c.Category), categoryRecord{
			TotalDuration: c.TotalSeconds,
			TotalSessions: c.SessionCount,
			AppCount:      len(c.Applications),
		})
	}
	for _, peak := range snap.PeakHours {
		doc.TimePatterns.PeakHours = append(doc.TimePatterns.PeakHours, peakHourRecord{Hour: peak.Hour, Duration: peak.Seconds})
	}
	return doc
}

// ─── decoding ────────────────────────────────────────────────────────────────

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrMalformedHistory, fmt.Sprintf(format, args...))
}

func parseTimestamp(raw string) (time.Time, error) {
	return time.ParseInLocation(domain.TimestampLayout, strings.TrimSpace(raw), time.Local)
}

// toSession converts a stored record. Records without an end are dropped
// and reported with ok=false.
func (r sessionRecord) toSession(app string) (domain.Session, bool, error) {
	if r.End == nil || strings.TrimSpace(*r.End) == "" {
		return domain.Session{}, false, nil
	}
	start, err := parseTimestamp(r.Start)
	if err != nil {
		return domain.Session{}, false, malformed("%s: start %q", app, r.Start)
	}
	end, err := parseTimestamp(*r.End)
	if err != nil {
		return domain.Session{}, false, malformed("%s: end %q", app, *r.End)
	}
	category := domain.ParseCategory(r.Category)
	if category == domain.CategoryUnknown {
		category = domain.Categorize(app)
	}
	id := r.SessionID
	if id == "" {
		id = domain.SessionID(app, start)
	}
	duration := r.DurationSeconds
	if duration < 0 {
		duration = 0
	}
	var score *int
	if r.ProductivityScore != nil {
		v := *r.ProductivityScore
		score = &v
	}
	return domain.Session{
		ID:                id,
		Application:       app,
		Category:          category,
		Start:             start,
		End:               &end,
		DurationSeconds:   duration,
		WindowTitle:       r.WindowTitle,
		PID:               r.PID,
		IdleSeconds:       r.IdleTime,
		SwitchCount:       r.SwitchCount,
		ProductivityScore: score,
	}, true, nil
}

// decodeHistory accepts both the versioned document and the legacy map of
// application name to session list, keeping application order.
func decodeHistory(payload []byte) (*domain.History, error) {
	root := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(payload, root); err != nil {
		return nil, malformed("decode document: %v", err)
	}

	apps := root
	versioned := false
	if raw, ok := root.Get("applications"); ok {
		apps = orderedmap.New[string, json.RawMessage]()
		if err := json.Unmarshal(raw, apps); err != nil {
			return nil, malformed("decode applications: %v", err)
		}
		versioned = true
	}

	history := domain.NewHistory()
	for pair := apps.Oldest(); pair != nil; pair = pair.Next() {
		var records []sessionRecord
		if versioned {
			app := struct {
				Sessions []sessionRecord `json:"sessions"`
			}{}
			if err := json.Unmarshal(pair.Value, &app); err != nil {
				return nil, malformed("decode application %s: %v", pair.Key, err)
			}
			records = app.Sessions
		} else if err := json.Unmarshal(pair.Value, &records); err != nil {
			return nil, malformed("decode sessions of %s: %v", pair.Key, err)
		}
		for _, record := range records {
			session, ok, err := record.toSession(pair.Key)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if err := history.Append(session); err != nil {
				return nil, fmt.Errorf("append %s: %w", pair.Key, err)
			}
		}
	}
	return history, nil
}
