// Package transcript provides a scrollable pane of job output.
package transcript

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
)

// Transcript accumulates lines and streamed text in a viewport that
// follows the end of the output.
type Transcript struct {
	styles   *styles.Styles
	viewport viewport.Model
	lines    []string

	// partial is the line being streamed, not yet ended.
	partial strings.Builder
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Transcript{
		styles:   s,
		viewport: viewport.New(80, 10),
	}
}

// Update forwards scrolling keys to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// AppendLine ends any streamed text and adds a styled line.
func (t *Transcript) AppendLine(style lipgloss.Style, text string) {
	t.endStream()
	t.lines = append(t.lines, style.Render(text))
	t.refresh()
}

// AppendText streams text onto the current line. Newlines in text start
// new lines.
func (t *Transcript) AppendText(text string) {
	parts := strings.Split(text, "\n")
	t.partial.WriteString(parts[0])
	for _, p := range parts[1:] {
		t.lines = append(t.lines, t.styles.Answer.Render(t.partial.String()))
		t.partial.Reset()
		t.partial.WriteString(p)
	}
	t.refresh()
}

func (t *Transcript) endStream() {
	if t.partial.Len() > 0 {
		t.lines = append(t.lines, t.styles.Answer.Render(t.partial.String()))
		t.partial.Reset()
	}
}

func (t *Transcript) refresh() {
	content := strings.Join(t.lines, "\n")
	if t.partial.Len() > 0 {
		if content != "" {
			content += "\n"
		}
		content += t.styles.Answer.Render(t.partial.String())
	}
	atBottom := t.viewport.AtBottom()
	t.viewport.SetContent(content)
	if atBottom {
		t.viewport.GotoBottom()
	}
}

// Content returns the rendered transcript text.
func (t *Transcript) Content() string {
	all := append([]string(nil), t.lines...)
	if t.partial.Len() > 0 {
		all = append(all, t.partial.String())
	}
	return strings.Join(all, "\n")
}

// Clear empties the transcript.
func (t *Transcript) Clear() {
	t.lines = nil
	t.partial.Reset()
	t.viewport.SetContent("")
	t.viewport.GotoTop()
}

// SetDimensions sets the visible size.
func (t *Transcript) SetDimensions(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = max(height, 1)
	t.refresh()
}

// Height returns the visible height.
func (t *Transcript) Height() int {
	return t.viewport.Height
}
