package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"apptrack/internal/modules/usage/dto"
	"apptrack/internal/ui/components"
	"apptrack/internal/ui/theme"
	usageview "apptrack/internal/ui/views/usage"
)

const (
	defaultRefresh = 2 * time.Second
	defaultTopN    = 10
	callTimeout    = 5 * time.Second
)

// ─── port ────────────────────────────────────────────────────────────────────

type usagePort interface {
	Status(ctx context.Context) (dto.StatusOutput, error)
	Day(ctx context.Context, date string) (dto.DailyUsageOutput, error)
	Top(ctx context.Context, n int) ([]dto.AppUsageOutput, error)
	Categories(ctx context.Context) ([]dto.CategoryOutput, error)
	Productivity(ctx context.Context) (dto.ProductivityOutput, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabOverview tabID = iota
	tabDay
	tabTop
	tabCategories
	tabCount
)

var tabLabels = [tabCount]string{
	"Overview", "Day", "Top", "Categories",
}

// ─── async messages ──────────────────────────────────────────────────────────

type tickMsg time.Time

type snapshotMsg struct {
	status       dto.StatusOutput
	day          dto.DailyUsageOutput
	top          []dto.AppUsageOutput
	categories   []dto.CategoryOutput
	productivity dto.ProductivityOutput
	at           time.Time
	err          error
}

type toggledMsg struct {
	started bool
	err     error
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Toggle  key.Binding
	Refresh key.Binding
	Palette key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next view")),
		Toggle:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start/stop")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Toggle, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Toggle, k.Refresh},
		{k.Palette, k.Help, k.Quit},
	}
}

var paletteHints = []string{
	"start",
	"stop",
	"refresh",
	"day <YYYY-MM-DD|today>",
	"top <n>",
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the watch view. It polls the tracker every refresh interval and
// renders one of four views; every read goes through usagePort.
type Model struct {
	usage   usagePort
	refresh time.Duration

	overview   usageview.Overview
	dayTable   usageview.Table
	topTable   usageview.Table
	categories usageview.Table

	date string
	topN int

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

func NewModel(usage usagePort, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = defaultRefresh
	}
	return Model{
		usage:      usage,
		refresh:    refresh,
		dayTable:   usageview.NewAppsTable("Today"),
		topTable:   usageview.NewAppsTable(fmt.Sprintf("Top %d", defaultTopN)),
		categories: usageview.NewCategoriesTable(),
		topN:       defaultTopN,
		keys:       defaultKeys(),
		help:       help.New(),
		palette:    components.NewPalette(paletteHints),
		status:     "loading…",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.tickCmd())
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.palette.SetWidth(min(msg.Width-4, 72))
		m.resizeTables()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.loadCmd(), m.tickCmd())

	case snapshotMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.apply(msg)
		return m, nil

	case toggledMsg:
		switch {
		case msg.err != nil:
			m.status = "tracker: " + msg.err.Error()
		case msg.started:
			m.status = "tracking started"
		default:
			m.status = "tracking stopped"
		}
		return m, m.loadCmd()

	case components.PaletteSubmitMsg:
		return m.execute(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "r":
			m.status = "refreshing…"
			return m, m.loadCmd()
		case "s":
			return m, m.toggleCmd(!m.overview.Status.Running)
		}
	}

	// Remaining input scrolls the visible table.
	var cmd tea.Cmd
	switch m.activeTab {
	case tabDay:
		m.dayTable, cmd = m.dayTable.Update(msg)
	case tabTop:
		m.topTable, cmd = m.topTable.Update(msg)
	case tabCategories:
		m.categories, cmd = m.categories.Update(msg)
	}
	return m, cmd
}

func (m *Model) apply(msg snapshotMsg) {
	m.overview = usageview.Overview{
		Status:       msg.status,
		Day:          msg.day,
		Productivity: msg.productivity,
		Now:          msg.at,
	}
	title := "Today"
	if m.date != "" {
		title = msg.day.Date
	}
	m.dayTable.SetTitle(title)
	m.dayTable.SetApps(msg.day.Applications)
	m.topTable.SetTitle(fmt.Sprintf("Top %d", m.topN))
	m.topTable.SetApps(msg.top)
	m.categories.SetCategories(msg.categories)
	m.status = "updated " + msg.at.Format("15:04:05")
}

func (m *Model) resizeTables() {
	h := m.height - 4
	m.dayTable.SetSize(m.width, h)
	m.topTable.SetSize(m.width, h)
	m.categories.SetSize(m.width, h)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabOverview:
		return m.overview.View(min(m.width, 60))
	case tabDay:
		return m.dayTable.View()
	case tabTop:
		return m.topTable.View()
	case tabCategories:
		return m.categories.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := " " + tabLabels[i] + " "
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(label)
		} else {
			parts[i] = theme.Muted.Render(label)
		}
	}
	bar := "apptrack  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.overview.Status.Running {
		left = theme.Good.Render("● REC") + "  " + left
	}
	right := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) execute(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	switch parts[0] {
	case "start":
		return m, m.toggleCmd(true)
	case "stop":
		return m, m.toggleCmd(false)
	case "refresh":
		return m, m.loadCmd()
	case "day":
		if len(parts) < 2 || parts[1] == "today" {
			m.date = ""
		} else {
			if _, err := time.Parse("2006-01-02", parts[1]); err != nil {
				m.status = "usage: day <YYYY-MM-DD|today>"
				return m, nil
			}
			m.date = parts[1]
		}
		m.activeTab = tabDay
		return m, m.loadCmd()
	case "top":
		n, err := strconv.Atoi(strings.Join(parts[1:], ""))
		if err != nil || n <= 0 {
			m.status = "usage: top <n>"
			return m, nil
		}
		m.topN = n
		m.activeTab = tabTop
		return m, m.loadCmd()
	default:
		m.status = "unknown command: " + parts[0]
		return m, nil
	}
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) loadCmd() tea.Cmd {
	usage, date, topN := m.usage, m.date, m.topN
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		var msg snapshotMsg
		if msg.status, msg.err = usage.Status(ctx); msg.err != nil {
			return msg
		}
		if msg.day, msg.err = usage.Day(ctx, date); msg.err != nil {
			return msg
		}
		if msg.top, msg.err = usage.Top(ctx, topN); msg.err != nil {
			return msg
		}
		if msg.categories, msg.err = usage.Categories(ctx); msg.err != nil {
			return msg
		}
		msg.productivity, msg.err = usage.Productivity(ctx)
		msg.at = time.Now()
		return msg
	}
}

func (m Model) toggleCmd(start bool) tea.Cmd {
	usage := m.usage
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		if start {
			return toggledMsg{started: true, err: usage.Start(ctx)}
		}
		return toggledMsg{started: false, err: usage.Stop(ctx)}
	}
}
