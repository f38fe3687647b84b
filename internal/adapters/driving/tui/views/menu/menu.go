// Package menu provides the entry view listing the other views.
package menu

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
)

// Entry is one selectable line of the menu. An entry without a target
// view quits.
type Entry struct {
	Label  string
	Hint   string
	Target messages.ViewType
	Quit   bool
}

// View lists the entries and the models the pipeline runs with.
type View struct {
	styles  *styles.Styles
	entries []Entry
	cursor  int

	embedModel string
	genModel   string

	width  int
	height int
	ready  bool
}

// NewView creates the menu. The model names are shown in the header.
func NewView(s *styles.Styles, embedModel, genModel string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		entries: []Entry{
			{Label: "Ask", Hint: "question the indexed documents", Target: messages.ViewAsk},
			{Label: "Ingest", Hint: "index files or directories", Target: messages.ViewIngest},
			{Label: "Collections", Hint: "choose or delete stored indexes", Target: messages.ViewCollections},
			{Label: "Settings", Hint: "models, chunking and retrieval", Target: messages.ViewSettings},
			{Label: "Help", Hint: "key bindings", Target: messages.ViewHelp},
			{Label: "Quit", Quit: true},
		},
		embedModel: embedModel,
		genModel:   genModel,
		width:      80,
		height:     24,
	}
}

// Init implements the view lifecycle. The menu loads nothing.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor and selects entries. Digits select directly.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "up", "k":
			v.cursor = max(v.cursor-1, 0)
		case "down", "j":
			v.cursor = min(v.cursor+1, len(v.entries)-1)
		case "enter":
			return v, v.choose(v.cursor)
		case "q":
			return v, quit
		default:
			if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(v.entries) {
				v.cursor = n - 1
				return v, v.choose(v.cursor)
			}
		}
	}
	return v, nil
}

func (v *View) choose(i int) tea.Cmd {
	e := v.entries[i]
	if e.Quit {
		return quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: e.Target} }
}

func quit() tea.Msg { return messages.Quit{} }

// View renders the header, the entries and the key hints.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("ragdesk"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Questions over your local documents"))
	b.WriteString("\n\n")
	if v.embedModel != "" || v.genModel != "" {
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("embedding %s · generation %s",
			orUnset(v.embedModel), orUnset(v.genModel))))
		b.WriteString("\n\n")
	}

	for i, e := range v.entries {
		label := fmt.Sprintf("%d. %s", i+1, e.Label)
		if i == v.cursor {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		if e.Hint != "" {
			b.WriteString("  " + v.styles.Muted.Render(e.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] move  [1-6/enter] select  [q] quit"))
	return b.String()
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Cursor returns the index of the highlighted entry.
func (v *View) Cursor() int {
	return v.cursor
}
