package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrompt(t *testing.T) {
	p := NewPrompt(nil, "Ask", "Type a question...")

	require.NotNil(t, p)
	assert.NotNil(t, p.styles)
	assert.True(t, p.Focused())
	assert.Empty(t, p.Value())
	assert.NotNil(t, p.Init())
}

func TestPrompt_Typing(t *testing.T) {
	p := NewPrompt(nil, "Ask", "")

	for _, r := range "hi" {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Equal(t, "hi", p.Value())

	p.Reset()
	assert.Empty(t, p.Value())
}

func TestPrompt_FocusAndBlur(t *testing.T) {
	p := NewPrompt(nil, "Ask", "")

	p.Blur()
	assert.False(t, p.Focused())
	p.Focus()
	assert.True(t, p.Focused())
}

func TestPrompt_SetWidth(t *testing.T) {
	p := NewPrompt(nil, "Paths", "")

	p.SetWidth(100)
	assert.Equal(t, 100, p.Width())
	assert.Equal(t, 100-len("Paths")-8, p.textinput.Width)

	p.SetWidth(10)
	assert.Equal(t, 20, p.textinput.Width)
}

func TestPrompt_View(t *testing.T) {
	p := NewPrompt(nil, "Ask", "")
	p.SetValue("what is rag")

	view := p.View()
	assert.Contains(t, view, "Ask")
	assert.Contains(t, view, "what is rag")
}
