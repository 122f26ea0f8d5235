package dto

import "time"

type SessionOutput struct {
	ID                string     `json:"session_id"`
	Application       string     `json:"application"`
	Category          string     `json:"category"`
	Start             time.Time  `json:"start"`
	End               *time.Time `json:"end,omitempty"`
	DurationSeconds   int        `json:"duration_seconds"`
	WindowTitle       string     `json:"window_title"`
	PID               int        `json:"pid"`
	ProductivityScore *int       `json:"productivity_score"`
}

type StatusOutput struct {
	Running       bool           `json:"running"`
	Current       *SessionOutput `json:"current_session,omitempty"`
	TotalApps     int            `json:"total_apps"`
	TotalSessions int            `json:"total_sessions"`
	LastSavedAt   time.Time      `json:"last_saved_at"`
	LastError     string         `json:"last_error,omitempty"`
}

type ApplicationOutput struct {
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	TotalSessions  int             `json:"total_sessions"`
	TotalSeconds   int             `json:"total_duration"`
	AverageSeconds float64         `json:"average_session_duration"`
	MedianSeconds  float64         `json:"median_session_duration"`
	FirstUsed      time.Time       `json:"first_used"`
	LastUsed       time.Time       `json:"last_used"`
	Sessions       []SessionOutput `json:"sessions,omitempty"`
}

type HistoryOutput struct {
	Applications  []ApplicationOutput `json:"applications"`
	TotalSessions int                 `json:"total_sessions"`
}

type AppUsageOutput struct {
	Application string `json:"application"`
	Category    string `json:"category"`
	Seconds     int    `json:"seconds"`
	Sessions    int    `json:"sessions"`
	Duration    string `json:"duration"`
}

type DailyUsageInput struct {
	// Date is YYYY-MM-DD; empty means today.
	Date string
}

type DailyUsageOutput struct {
	Date         string           `json:"date"`
	Applications []AppUsageOutput `json:"applications"`
	TotalSeconds int              `json:"total_seconds"`
}

type CategoryOutput struct {
	Category     string   `json:"category"`
	Title        string   `json:"title"`
	TotalSeconds int      `json:"total_time"`
	SessionCount int      `json:"session_count"`
	Applications []string `json:"apps"`
	Duration     string   `json:"duration"`
}

type ProductivityOutput struct {
	TotalSeconds       int     `json:"total_time"`
	ProductiveSeconds  int     `json:"productive_time"`
	DistractionSeconds int     `json:"distraction_time"`
	Percentage         float64 `json:"productivity_percentage"`
}

type HourOutput struct {
	Hour    int `json:"hour"`
	Seconds int `json:"duration"`
}

type StatsOutput struct {
	TotalSessions  int                 `json:"total_sessions"`
	TotalApps      int                 `json:"total_apps"`
	PeriodStart    string              `json:"period_start,omitempty"`
	PeriodEnd      string              `json:"period_end,omitempty"`
	PeriodDays     int                 `json:"period_days"`
	TopApps        []ApplicationOutput `json:"top_apps"`
	Categories     []CategoryOutput    `json:"category_breakdown"`
	Productivity   ProductivityOutput  `json:"productivity_metrics"`
	PeakHours      []HourOutput        `json:"peak_hours"`
	WeekdaySeconds int                 `json:"weekday_usage"`
	WeekendSeconds int                 `json:"weekend_usage"`
	Hourly         []int               `json:"hourly_distribution"`
}

type ReportOutput struct {
	GeneratedAt time.Time `json:"generated_at"`
	Text        string    `json:"text"`
}

type BackupOutput struct {
	Path    string `json:"path"`
	Created bool   `json:"created"`
}

type ExportInput struct {
	Format string
}

type ExportOutput struct {
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	Body        []byte `json:"-"`
}

type ReindexOutput struct {
	Sessions int `json:"sessions"`
}
