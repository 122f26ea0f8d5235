package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"apptrack/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

const maxHints = 5

var (
	paletteFrame = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0).PaddingLeft(2)
)

// Palette is a one-line command prompt with prefix-matched hints. Up and down
// move through the hints; tab copies the selected hint's verb into the input.
type Palette struct {
	input    textinput.Model
	hints    []string
	selected int
	visible  bool
	width    int
}

func NewPalette(hints []string) Palette {
	in := textinput.New()
	in.Prompt = ": "
	in.Placeholder = "start, stop, day, top…"
	in.CharLimit = 64
	return Palette{input: in, hints: hints}
}

func (p Palette) Visible() bool { return p.visible }

// Open resets the prompt and returns the cursor blink command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.selected = 0
	p.input.Reset()
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}

	switch key.Type {
	case tea.KeyEsc:
		p.hide()
		return p, emit(PaletteCancelMsg{})
	case tea.KeyEnter:
		line := strings.TrimSpace(p.input.Value())
		p.hide()
		return p, emit(PaletteSubmitMsg{Input: line})
	case tea.KeyUp:
		p.move(-1)
		return p, nil
	case tea.KeyDown:
		p.move(1)
		return p, nil
	case tea.KeyTab:
		if hints := p.candidates(); len(hints) > 0 {
			verb, _, _ := strings.Cut(hints[p.selected], " ")
			p.input.SetValue(verb + " ")
			p.input.CursorEnd()
		}
		return p, nil
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(key)
	p.selected = 0
	return p, cmd
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func (p *Palette) hide() {
	p.visible = false
	p.input.Blur()
}

func (p *Palette) move(delta int) {
	n := len(p.candidates())
	if n == 0 {
		return
	}
	p.selected = (p.selected + delta + n) % n
}

// candidates returns up to maxHints hints whose verb starts with the typed
// word. Arguments after the verb do not narrow the list.
func (p Palette) candidates() []string {
	typed, _, _ := strings.Cut(strings.ToLower(strings.TrimLeft(p.input.Value(), " ")), " ")
	out := make([]string, 0, maxHints)
	for _, hint := range p.hints {
		if len(out) == maxHints {
			break
		}
		if strings.HasPrefix(hint, typed) {
			out = append(out, hint)
		}
	}
	return out
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	rows := []string{theme.Title.Render("Command"), p.input.View()}
	for i, hint := range p.candidates() {
		if i == p.selected {
			rows = append(rows, theme.Hot.Render("› "+hint))
			continue
		}
		rows = append(rows, hintStyle.Render(hint))
	}

	width := p.width
	if width < 20 {
		width = 64
	}
	return paletteFrame.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
