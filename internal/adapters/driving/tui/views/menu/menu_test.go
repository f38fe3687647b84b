package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewView(t *testing.T) {
	view := NewView(styles.DefaultStyles(), "nomic-embed-text", "llama3")

	require.NotNil(t, view)
	assert.Len(t, view.entries, 6)
	assert.Equal(t, 0, view.Cursor())
	assert.Nil(t, view.Init())
}

func TestNewView_NilStyles(t *testing.T) {
	view := NewView(nil, "", "")
	assert.NotNil(t, view.styles)
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil, "", "")

	updated, cmd := view.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	assert.Same(t, view, updated)
	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 100, view.width)
}

func TestView_Update_Navigate(t *testing.T) {
	view := NewView(nil, "", "")

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.Cursor())
	for range 10 {
		view.Update(runes("j"))
	}
	assert.Equal(t, 5, view.Cursor(), "stops at the last entry")

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 4, view.Cursor())
	for range 10 {
		view.Update(runes("k"))
	}
	assert.Equal(t, 0, view.Cursor(), "stops at the first entry")
}

func TestView_Update_Enter(t *testing.T) {
	tests := []struct {
		index int
		view  messages.ViewType
	}{
		{0, messages.ViewAsk},
		{1, messages.ViewIngest},
		{2, messages.ViewCollections},
		{3, messages.ViewSettings},
		{4, messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.view.String(), func(t *testing.T) {
			view := NewView(nil, "", "")
			view.cursor = tt.index

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
			require.NotNil(t, cmd)
			assert.Equal(t, messages.ViewChanged{View: tt.view}, cmd())
		})
	}
}

func TestView_Update_DigitSelects(t *testing.T) {
	view := NewView(nil, "", "")

	_, cmd := view.Update(runes("3"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewCollections}, cmd())
	assert.Equal(t, 2, view.Cursor())

	_, cmd = view.Update(runes("9"))
	assert.Nil(t, cmd, "out of range digits are ignored")
}

func TestView_Update_Quit(t *testing.T) {
	view := NewView(nil, "", "")
	view.cursor = 5

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.Quit{}, cmd())

	_, cmd = view.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.Quit{}, cmd())
}

func TestView_View(t *testing.T) {
	view := NewView(nil, "nomic-embed-text", "")
	assert.Contains(t, view.View(), "Initialising")

	view.SetDimensions(80, 24)
	output := view.View()
	assert.Contains(t, output, "ragdesk")
	assert.Contains(t, output, "embedding nomic-embed-text")
	assert.Contains(t, output, "generation (not set)")
	assert.Contains(t, output, "> ")
	for i, e := range view.entries {
		assert.Contains(t, output, e.Label, "entry %d", i)
	}
}
