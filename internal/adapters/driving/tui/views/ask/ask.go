// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// ErrNoJobController indicates that no job controller was provided.
var ErrNoJobController = errors.New("job controller is required")

// View asks questions and streams answers with their sources.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.Prompt
	transcript *transcript.Transcript
	statusbar  *status.Bar

	jobs  driving.JobController
	model string
	ctx   context.Context

	jobID   string
	answer  *domain.Answer
	failure error

	width      int
	height     int
	ready      bool
	focusInput bool
}

// NewView creates an ask view generating with model.
func NewView(s *styles.Styles, km *keymap.KeyMap, jobs driving.JobController, model string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewPrompt(s, "Ask", "Type a question about your documents..."),
		transcript: transcript.New(s),
		statusbar:  status.NewBar(s, km),
		jobs:       jobs,
		model:      model,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context jobs are started with.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	v.refreshCollection()
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.JobStarted:
		if msg.Kind != domain.JobQuery {
			return v, nil
		}
		if msg.Err != nil {
			v.statusbar.SetState(domain.StateIdle)
			v.statusbar.SetError(msg.Err)
			v.transcript.AppendLine(v.styles.Error, "Error: "+msg.Err.Error())
			v.focus()
			return v, nil
		}
		v.jobID = msg.ID
		return v, nil

	case messages.JobEvents:
		for _, ev := range msg.Events {
			if ev.JobID == v.jobID {
				v.handleEvent(ev)
			}
		}
		return v, nil

	case messages.ErrorOccurred:
		v.statusbar.SetError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	running := v.statusbar.Running()

	if keymap.Matches(msg.String(), v.keymap.CancelJob) {
		if running && v.jobs != nil {
			_ = v.jobs.CancelJob(v.jobID)
		}
		return v, nil
	}

	// Esc leaves the view; a running job keeps going in the background.
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(v.input.Value())
			if question == "" {
				return v, nil
			}
			return v, v.ask(question)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	if !running && keymap.Matches(msg.String(), v.keymap.New) {
		v.Reset()
		return v, nil
	}

	var cmd tea.Cmd
	v.transcript, cmd = v.transcript.Update(msg)
	return v, cmd
}

// ask clears the transcript and starts a query job.
func (v *View) ask(question string) tea.Cmd {
	v.transcript.Clear()
	v.answer = nil
	v.jobID = ""
	v.failure = nil
	v.focusInput = false
	v.input.Blur()
	v.statusbar.SetState(domain.StateRetrieving)
	v.transcript.AppendLine(v.styles.Subtitle, "Q: "+question)

	jobs, model, ctx := v.jobs, v.model, v.ctx
	return func() tea.Msg {
		if jobs == nil {
			return messages.JobStarted{Kind: domain.JobQuery, Err: ErrNoJobController}
		}
		id, err := jobs.StartQuery(ctx, question, model)
		return messages.JobStarted{ID: id, Kind: domain.JobQuery, Err: err}
	}
}

func (v *View) handleEvent(ev domain.Event) {
	switch ev.Type {
	case domain.EventState:
		v.statusbar.SetState(ev.State)
		if ev.State == domain.StateCancelled {
			v.transcript.AppendLine(v.styles.Warning, "Cancelled.")
		}
	case domain.EventLog:
		v.transcript.AppendLine(v.styles.Muted, ev.Message)
	case domain.EventWarning:
		v.transcript.AppendLine(v.styles.Warning, "Warning: "+ev.Message)
	case domain.EventToken:
		v.transcript.AppendText(ev.Token)
	case domain.EventAnswer:
		v.answer = ev.Answer
		v.renderAnswer(ev.Answer)
	case domain.EventError:
		v.failure = ev.Err
		v.transcript.AppendLine(v.styles.Error, "Error: "+ev.Message)
	}

	if ev.IsTerminal() {
		if ev.State == domain.StateFailed && v.failure != nil {
			v.statusbar.SetError(v.failure)
		}
		v.refreshCollection()
	}
}

func (v *View) refreshCollection() {
	if v.jobs == nil {
		return
	}
	if info, ok := v.jobs.Current(); ok {
		v.statusbar.SetCollection(info.Name)
	}
}

func (v *View) renderAnswer(a *domain.Answer) {
	if a == nil {
		return
	}
	if a.NoRelevantInfo {
		v.transcript.AppendLine(v.styles.Answer, a.Text)
		return
	}
	if lines := a.SourceLines(); len(lines) > 0 {
		v.transcript.AppendLine(v.styles.Normal, "")
		for _, l := range lines {
			v.transcript.AppendLine(v.styles.Citation, l)
		}
	}
}

func (v *View) focus() {
	v.focusInput = true
	v.input.Focus()
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("Ask"),
		"",
		v.input.View(),
		"",
		v.transcript.View(),
		"",
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.transcript.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

// Reset clears the transcript and focuses the input.
func (v *View) Reset() {
	v.focus()
	v.input.SetValue("")
	v.transcript.Clear()
	v.answer = nil
	v.jobID = ""
	v.failure = nil
	v.statusbar.Clear()
}

// JobID returns the id of the last started query job.
func (v *View) JobID() string {
	return v.jobID
}

// Answer returns the last answer received.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Transcript returns the transcript text.
func (v *View) Transcript() string {
	return v.transcript.Content()
}

// State returns the state of the last job.
func (v *View) State() domain.JobState {
	return v.statusbar.State()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
