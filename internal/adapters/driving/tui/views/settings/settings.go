// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

var errNoSettingsService = errors.New("settings service not available")

// View lists settings and edits one at a time.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	values   []driving.SettingValue
	err      error
	notice   string
	selected int

	editing bool
	input   textinput.Model

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.CharLimit = 512

	return &View{
		styles:          s,
		settingsService: settingsService,
		input:           ti,
	}
}

// Init initialises the view and loads settings.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsLoaded{Err: errNoSettingsService}
		}
		values, err := v.settingsService.Values()
		return messages.SettingsLoaded{Values: values, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.values = msg.Values
			v.selected = min(v.selected, max(len(v.values)-1, 0))
		}
		return v, nil

	case messages.SettingSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		if msg.Key == "" {
			v.notice = "Settings restored to defaults. Restart to apply."
		} else {
			v.notice = fmt.Sprintf("Saved %s. Restart to apply.", msg.Key)
		}
		return v, v.load()

	case tea.KeyMsg:
		if v.editing {
			return v.handleEditKey(msg)
		}
		return v.handleKeyMsg(msg)
	}

	if v.editing {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.values)-1 {
			v.selected++
		}
	case "enter":
		if v.selected < len(v.values) {
			v.startEdit(v.values[v.selected])
			return v, textinput.Blink
		}
	case "x":
		return v, v.reset()
	}
	return v, nil
}

func (v *View) startEdit(sv driving.SettingValue) {
	v.editing = true
	v.notice = ""
	v.err = nil
	v.input.Reset()
	v.input.Placeholder = sv.Key
	if sv.Secret {
		v.input.EchoMode = textinput.EchoPassword
	} else {
		v.input.EchoMode = textinput.EchoNormal
		v.input.SetValue(sv.Value)
	}
	v.input.Focus()
}

func (v *View) handleEditKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		v.editing = false
		v.input.Blur()
		return v, nil
	case tea.KeyEnter:
		v.editing = false
		v.input.Blur()
		return v, v.save(v.values[v.selected].Key, v.input.Value())
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) save(key, value string) tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingSaved{Key: key, Err: errNoSettingsService}
		}
		return messages.SettingSaved{Key: key, Err: v.settingsService.Set(key, value)}
	}
}

func (v *View) reset() tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingSaved{Err: errNoSettingsService}
		}
		return messages.SettingSaved{Err: v.settingsService.Reset()}
	}
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	width := 0
	for _, sv := range v.values {
		width = max(width, len(sv.Key))
	}
	for i, sv := range v.values {
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}
		value := sv.Value
		switch {
		case value == "":
			value = "(not set)"
		case sv.Secret:
			value = "****"
		}
		if v.editing && i == v.selected {
			value = v.input.View()
		}

		line := fmt.Sprintf("%s%-*s  %s", indicator, width, sv.Key, value)
		if i == v.selected && !v.editing {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	} else if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	if v.editing {
		b.WriteString(v.styles.Help.Render("[enter] save  [esc] cancel"))
	} else {
		b.WriteString(v.styles.Help.Render("[enter] edit  [x] reset all  [esc] back"))
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Reset leaves edit mode and clears notices.
func (v *View) Reset() {
	v.editing = false
	v.input.Blur()
	v.notice = ""
	v.err = nil
}

// Editing reports whether a value is being edited.
func (v *View) Editing() bool {
	return v.editing
}

// Values returns the loaded setting values.
func (v *View) Values() []driving.SettingValue {
	return v.values
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
