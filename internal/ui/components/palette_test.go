package components_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apptrack/internal/ui/components"
)

func typeText(p components.Palette, s string) components.Palette {
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return p
}

func submit(t *testing.T, p components.Palette) string {
	t.Helper()
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, p.Visible())
	msg, ok := cmd().(components.PaletteSubmitMsg)
	require.True(t, ok)
	return msg.Input
}

func TestPaletteTabCompletesSelectedVerb(t *testing.T) {
	p := components.NewPalette([]string{"start", "stop", "top <n>"})
	p.Open()

	p = typeText(p, "st")
	assert.Contains(t, p.View(), "› start")

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Contains(t, p.View(), "› stop")

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "stop", submit(t, p))
}

func TestPaletteArgumentsKeepVerbHints(t *testing.T) {
	p := components.NewPalette([]string{"day <YYYY-MM-DD|today>", "top <n>"})
	p.Open()

	p = typeText(p, "top 3")
	view := p.View()
	assert.Contains(t, view, "top <n>")
	assert.NotContains(t, view, "day <")
	assert.Equal(t, "top 3", submit(t, p))
}

func TestPaletteEscCancels(t *testing.T) {
	p := components.NewPalette(nil)
	p.Open()
	require.True(t, p.Visible())

	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.False(t, p.Visible())
	assert.Equal(t, components.PaletteCancelMsg{}, cmd())
	assert.Empty(t, p.View())
}
