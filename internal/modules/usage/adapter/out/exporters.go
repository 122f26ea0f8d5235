package out

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"apptrack/internal/modules/usage/domain"
	usageout "apptrack/internal/modules/usage/port/out"
	"apptrack/internal/platform/markdown"
)

// Exporters returns every supported export format.
func Exporters() []usageout.Exporter {
	return []usageout.Exporter{JSONExporter{}, TextExporter{}, CSVExporter{}, MarkdownExporter{}}
}

// JSONExporter writes the versioned history document.
type JSONExporter struct{}

func (JSONExporter) Format() string      { return "json" }
func (JSONExporter) ContentType() string { return "application/json" }
func (JSONExporter) Extension() string   { return "json" }

func (JSONExporter) Export(history *domain.History, _ string, generatedAt time.Time) ([]byte, error) {
	payload, err := json.MarshalIndent(newHistoryDocument(history, generatedAt), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}
	return payload, nil
}

type TextExporter struct{}

func (TextExporter) Format() string      { return "text" }
func (TextExporter) ContentType() string { return "text/plain; charset=utf-8" }
func (TextExporter) Extension() string   { return "txt" }

func (TextExporter) Export(_ *domain.History, report string, _ time.Time) ([]byte, error) {
	return []byte(report), nil
}

var csvHeader = []string{"App Name", "Category", "Total Duration (s)", "Sessions", "Last Used"}

// CSVExporter writes one row per application in history order.
type CSVExporter struct{}

func (CSVExporter) Format() string      { return "csv" }
func (CSVExporter) ContentType() string { return "text/csv" }
func (CSVExporter) Extension() string   { return "csv" }

func (CSVExporter) Export(history *domain.History, _ string, _ time.Time) ([]byte, error) {
	buf := bytes.Buffer{}
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, summary := range domain.Summaries(history) {
		lastUsed := "N/A"
		if !summary.LastUsed.IsZero() {
			lastUsed = summary.LastUsed.Format(domain.TimestampLayout)
		}
		row := []string{
			summary.Name,
			string(summary.Category),
			strconv.Itoa(summary.TotalSeconds),
			strconv.Itoa(summary.TotalSessions),
			lastUsed,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

type markdownMeta struct {
	Title                  string  `yaml:"title"`
	GeneratedAt            string  `yaml:"generated_at"`
	TotalApps              int     `yaml:"total_apps"`
	TotalSessions          int     `yaml:"total_sessions"`
	TrackingStart          string  `yaml:"tracking_start,omitempty"`
	TrackingEnd            string  `yaml:"tracking_end,omitempty"`
	TrackingDays           int     `yaml:"tracking_days"`
	ProductivityPercentage float64 `yaml:"productivity_percentage"`
}

// MarkdownExporter writes a frontmatter summary followed by markdown tables.
type MarkdownExporter struct{}

func (MarkdownExporter) Format() string      { return "markdown" }
func (MarkdownExporter) ContentType() string { return "text/markdown; charset=utf-8" }
func (MarkdownExporter) Extension() string   { return "md" }

func (MarkdownExporter) Export(history *domain.History, _ string, generatedAt time.Time) ([]byte, error) {
	snap := domain.BuildSnapshot(history)
	meta := markdownMeta{
		Title:                  "Usage Report",
		GeneratedAt:            generatedAt.Format(domain.TimestampLayout),
		TotalApps:              snap.Summary.TotalApps,
		TotalSessions:          snap.Summary.TotalSessions,
		TrackingDays:           snap.Summary.Period.Days,
		ProductivityPercentage: snap.Productivity.Percentage,
	}
	if !snap.Summary.Period.Empty() {
		meta.TrackingStart = snap.Summary.Period.Start.Format(domain.DateLayout)
		meta.TrackingEnd = snap.Summary.Period.End.Format(domain.DateLayout)
	}
	doc, err := markdown.Render(meta, MarkdownBody(snap))
	if err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

// MarkdownBody renders a snapshot as markdown without frontmatter.
func MarkdownBody(snap domain.StatsSnapshot) string {
	b := strings.Builder{}
	b.WriteString("# Usage Report\n")
	if snap.Summary.TotalSessions == 0 {
		b.WriteString("\nNo usage data available.\n")
		return b.String()
	}

	b.WriteString("\n## Top Applications\n\n")
	b.WriteString("| # | Application | Category | Time | Sessions |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for i, app := range snap.TopApps {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %d |\n",
			i+1, escapeCell(app.Name), app.Category, domain.FormatDuration(app.TotalSeconds), app.TotalSessions)
	}

	b.WriteString("\n## Categories\n\n")
	for _, c := range snap.Categories {
		fmt.Fprintf(&b, "- **%s**: %s (%d apps, %d sessions)\n",
			c.Category.Title(), domain.FormatDuration(c.TotalSeconds), len(c.Applications), c.SessionCount)
	}

	p := snap.Productivity
	b.WriteString("\n## Productivity\n\n")
	fmt.Fprintf(&b, "- Total time: %s\n", domain.FormatDuration(p.TotalSeconds))
	fmt.Fprintf(&b, "- Productive time: %s\n", domain.FormatDuration(p.ProductiveSeconds))
	fmt.Fprintf(&b, "- Productivity: %.1f%%\n", p.Percentage)
	fmt.Fprintf(&b, "- Weekday / weekend: %s / %s\n", domain.FormatDuration(snap.WeekdaySeconds), domain.FormatDuration(snap.WeekendSeconds))

	if len(snap.PeakHours) > 0 {
		b.WriteString("\n## Peak Hours\n\n")
		for _, h := range snap.PeakHours {
			fmt.Fprintf(&b, "- %02d:00 %s\n", h.Hour, domain.FormatDuration(h.Seconds))
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
