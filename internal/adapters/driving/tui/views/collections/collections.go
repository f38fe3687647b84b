// Package collections provides the stored collections view for the TUI.
package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

var errNoIndexService = errors.New("index service not available")

// View lists collections. Enter selects one for questions.
type View struct {
	styles *styles.Styles
	index  driving.IndexService
	jobs   driving.JobController

	collections []domain.CollectionInfo
	current     string
	selected    int
	width       int
	height      int
	ready       bool
	err         error
	notice      string
	loading     bool
}

// NewView creates a new collections view.
func NewView(s *styles.Styles, index driving.IndexService, jobs driving.JobController) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		index:  index,
		jobs:   jobs,
	}
}

// Init initialises the view and loads collections.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.notice = ""
	return v.load()
}

func (v *View) load() tea.Cmd {
	return func() tea.Msg {
		if v.index == nil {
			return messages.CollectionsLoaded{Err: errNoIndexService}
		}
		infos, err := v.index.List(context.Background())
		msg := messages.CollectionsLoaded{Collections: infos, Err: err}
		if v.jobs != nil {
			if info, ok := v.jobs.Current(); ok {
				msg.Current = info.Name
			}
		}
		return msg
	}
}

// Update handles messages for the collections view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.CollectionsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.collections = msg.Collections
			v.current = msg.Current
			if v.selected >= len(v.collections) {
				v.selected = max(len(v.collections)-1, 0)
			}
		}
		return v, nil

	case messages.CollectionDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = "Deleted " + msg.Name
		return v, v.load()

	case messages.CollectionAttached:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.current = msg.Collection.Name
		v.notice = "Questions now use " + msg.Collection.Name
		return v, nil
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
		if v.selected < len(v.collections)-1 {
			v.selected++
		}
	case "enter":
		if info, ok := v.Selected(); ok {
			return v, v.attach(info.Name)
		}
	case "d", "delete":
		if info, ok := v.Selected(); ok {
			return v, v.delete(info.Name)
		}
	case "r":
		v.loading = true
		return v, v.load()
	}
	return v, nil
}

func (v *View) attach(name string) tea.Cmd {
	return func() tea.Msg {
		if v.jobs == nil {
			return messages.CollectionAttached{Err: errors.New("job controller not available")}
		}
		info, err := v.jobs.Attach(context.Background(), name)
		return messages.CollectionAttached{Collection: info, Err: err}
	}
}

func (v *View) delete(name string) tea.Cmd {
	return func() tea.Msg {
		if v.index == nil {
			return messages.CollectionDeleted{Name: name, Err: errNoIndexService}
		}
		err := v.index.Delete(context.Background(), name)
		return messages.CollectionDeleted{Name: name, Err: err}
	}
}

// View renders the collections view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Collections"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading collections..."))
		b.WriteString("\n\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	case len(v.collections) == 0:
		b.WriteString(v.styles.Muted.Render("No collections. Ingest documents to create one."))
		b.WriteString("\n\n")
	default:
		for i := range v.collections {
			b.WriteString(v.renderCollection(i, &v.collections[i]))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if v.notice != "" && v.err == nil {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}
	b.WriteString(v.styles.Help.Render("[enter] use for questions  [d] delete  [r] reload  [esc] back"))
	return b.String()
}

// renderCollection renders one line: > name model chunks docs status
func (v *View) renderCollection(index int, info *domain.CollectionInfo) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	marker := " "
	if info.Name == v.current {
		marker = "*"
	}
	status := "completed"
	if !info.IsCompleted() {
		status = "incomplete"
	}

	docs := strings.Join(info.Documents, ", ")
	maxDocs := max(v.width-60, 10)
	if len(docs) > maxDocs {
		docs = docs[:maxDocs-3] + "..."
	}

	line := fmt.Sprintf("%s%s %-18s %-18s %6d chunks  %-10s %s",
		indicator, marker, info.Name, info.EmbeddingModel, info.Chunks, status, docs)
	if index == v.selected {
		return v.styles.Selected.Render(line)
	}
	if !info.IsCompleted() {
		return v.styles.Muted.Render(line)
	}
	return v.styles.Normal.Render(line)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Collections returns the loaded collections.
func (v *View) Collections() []domain.CollectionInfo {
	return v.collections
}

// Selected returns the highlighted collection.
func (v *View) Selected() (domain.CollectionInfo, bool) {
	if v.selected < 0 || v.selected >= len(v.collections) {
		return domain.CollectionInfo{}, false
	}
	return v.collections[v.selected], true
}

// Current returns the collection questions run against.
func (v *View) Current() string {
	return v.current
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
