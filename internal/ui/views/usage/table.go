package usage

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"apptrack/internal/modules/usage/dto"
	"apptrack/internal/ui/theme"
)

// ─── table ───────────────────────────────────────────────────────────────────

// Table is a scrollable usage listing with a title and an empty-state line.
type Table struct {
	title string
	empty string
	table table.Model
}

func newTable(title, empty string, columns []table.Column) Table {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Surface1).
		BorderBottom(true).
		Foreground(theme.Sapphire).
		Bold(true)
	styles.Selected = styles.Selected.Foreground(theme.Base).Background(theme.Lavender).Bold(false)
	t.SetStyles(styles)
	return Table{title: title, empty: empty, table: t}
}

func NewAppsTable(title string) Table {
	return newTable(title, "No usage recorded.", []table.Column{
		{Title: "#", Width: 3},
		{Title: "Application", Width: 28},
		{Title: "Category", Width: 14},
		{Title: "Time", Width: 12},
		{Title: "Sessions", Width: 8},
	})
}

func NewCategoriesTable() Table {
	return newTable("Categories", "No categories yet.", []table.Column{
		{Title: "Category", Width: 16},
		{Title: "Time", Width: 12},
		{Title: "Sessions", Width: 8},
		{Title: "Apps", Width: 36},
	})
}

func (t *Table) SetTitle(title string) { t.title = title }

func (t *Table) SetApps(apps []dto.AppUsageOutput) {
	rows := make([]table.Row, 0, len(apps))
	for i, a := range apps {
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			a.Application,
			a.Category,
			a.Duration,
			strconv.Itoa(a.Sessions),
		})
	}
	t.table.SetRows(rows)
}

func (t *Table) SetCategories(categories []dto.CategoryOutput) {
	rows := make([]table.Row, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, table.Row{
			c.Title,
			c.Duration,
			strconv.Itoa(c.SessionCount),
			strings.Join(c.Applications, ", "),
		})
	}
	t.table.SetRows(rows)
}

func (t *Table) SetSize(width, height int) {
	t.table.SetWidth(width)
	if height > 4 {
		t.table.SetHeight(height - 2)
	}
}

func (t Table) Len() int { return len(t.table.Rows()) }

func (t Table) Update(msg tea.Msg) (Table, tea.Cmd) {
	var cmd tea.Cmd
	t.table, cmd = t.table.Update(msg)
	return t, cmd
}

func (t Table) View() string {
	body := t.table.View()
	if t.Len() == 0 {
		body = theme.Muted.Render(t.empty)
	}
	return theme.Title.Render(t.title) + "\n\n" + body
}
