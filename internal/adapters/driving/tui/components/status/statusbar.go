// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Bar displays the job state, the active collection and keybinding hints.
type Bar struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	state      domain.JobState
	message    string
	collection string
	err        error
	width      int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  domain.StateIdle,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := max(s.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var parts []string

	switch {
	case s.err != nil:
		parts = append(parts, s.styles.Error.Render("Error: "+s.err.Error()))
	case s.state == domain.StateIdle:
		parts = append(parts, s.styles.Muted.Render("Ready"))
	case s.state == domain.StateCompleted:
		parts = append(parts, s.styles.Success.Render(s.state.String()))
	case s.state == domain.StateFailed:
		parts = append(parts, s.styles.Error.Render(s.state.String()))
	case s.state == domain.StateCancelled:
		parts = append(parts, s.styles.Warning.Render(s.state.String()))
	default:
		parts = append(parts, s.styles.Normal.Render(s.state.String()+"..."))
	}

	if s.message != "" {
		parts = append(parts, s.styles.Muted.Render(s.message))
	}
	if s.collection != "" {
		parts = append(parts, s.styles.Subtitle.Render(s.collection))
	}
	return strings.Join(parts, "  ")
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	switch {
	case s.Running():
		bindings = s.keymap.RunningHelp()
	case s.state.IsTerminal():
		bindings = s.keymap.FinishedHelp()
	default:
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the job state and clears any error.
func (s *Bar) SetState(state domain.JobState) {
	s.state = state
	s.err = nil
}

// State returns the current state.
func (s *Bar) State() domain.JobState {
	return s.state
}

// Running reports whether the shown job has not reached a terminal state.
func (s *Bar) Running() bool {
	return s.state != domain.StateIdle && !s.state.IsTerminal()
}

// SetError shows an error in place of the state.
func (s *Bar) SetError(err error) {
	s.err = err
}

// Err returns the shown error.
func (s *Bar) Err() error {
	return s.err
}

// SetMessage sets a short progress message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetCollection sets the collection name shown.
func (s *Bar) SetCollection(name string) {
	s.collection = name
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to the idle state.
func (s *Bar) Clear() {
	s.state = domain.StateIdle
	s.message = ""
	s.err = nil
}
