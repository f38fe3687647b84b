// Package ingest provides the document ingestion view for the TUI.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/connectors/filesystem"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// ErrNoJobController indicates that no job controller was provided.
var ErrNoJobController = errors.New("job controller is required")

// View selects documents and follows their ingestion.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.Prompt
	transcript *transcript.Transcript
	statusbar  *status.Bar

	jobs     driving.JobController
	supports filesystem.SupportFunc
	model    string
	ctx      context.Context

	jobID   string
	summary *domain.IngestionSummary
	failure error

	width      int
	height     int
	ready      bool
	focusInput bool
}

// NewView creates an ingest view embedding with model. Directories are
// expanded to the files supports accepts.
func NewView(s *styles.Styles, km *keymap.KeyMap, jobs driving.JobController, supports filesystem.SupportFunc, model string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewPrompt(s, "Paths", "Files or directories, separated by spaces"),
		transcript: transcript.New(s),
		statusbar:  status.NewBar(s, km),
		jobs:       jobs,
		supports:   supports,
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
	return v.input.Init()
}

// Update handles messages for the ingest view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.JobStarted:
		if msg.Kind != domain.JobIngestion {
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

	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			paths := strings.Fields(v.input.Value())
			if len(paths) == 0 {
				return v, nil
			}
			return v, v.ingest(paths)
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

// ingest scans paths and starts an ingestion job.
func (v *View) ingest(paths []string) tea.Cmd {
	v.transcript.Clear()
	v.summary = nil
	v.jobID = ""
	v.failure = nil
	v.focusInput = false
	v.input.Blur()
	v.statusbar.SetState(domain.StateRunning)

	jobs, supports, model, ctx := v.jobs, v.supports, v.model, v.ctx
	return func() tea.Msg {
		if jobs == nil {
			return messages.JobStarted{Kind: domain.JobIngestion, Err: ErrNoJobController}
		}
		docs, err := filesystem.Scan(paths, supports)
		if err != nil {
			return messages.JobStarted{Kind: domain.JobIngestion, Err: err}
		}
		id, err := jobs.StartIngestion(ctx, docs, model)
		return messages.JobStarted{ID: id, Kind: domain.JobIngestion, Err: err}
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
	case domain.EventProgress:
		v.statusbar.SetMessage(fmt.Sprintf("%s (%d/%d) page %d", ev.Document, ev.DocIndex, ev.DocTotal, ev.Page))
	case domain.EventDocument:
		v.transcript.AppendLine(v.styles.Normal,
			fmt.Sprintf("Processed %s (%d/%d): %d chunks", ev.Document, ev.DocIndex, ev.DocTotal, ev.Chunks))
	case domain.EventSkip, domain.EventWarning:
		v.transcript.AppendLine(v.styles.Warning, "Warning: "+ev.Message)
	case domain.EventSummary:
		v.summary = ev.Summary
		s := ev.Summary
		v.transcript.AppendLine(v.styles.Success,
			fmt.Sprintf("Indexed %d chunks from %d pages into %s (%d skipped)", s.TotalChunks, s.PagesSeen, s.Collection, s.Skipped))
		if s.Fallbacks > 0 {
			v.transcript.AppendLine(v.styles.Warning,
				fmt.Sprintf("Warning: %d chunks were stored with zero vectors", s.Fallbacks))
		}
		v.statusbar.SetCollection(s.Collection)
	case domain.EventError:
		v.failure = ev.Err
		v.transcript.AppendLine(v.styles.Error, "Error: "+ev.Message)
	}

	if ev.IsTerminal() {
		v.statusbar.SetMessage("")
		if ev.State == domain.StateFailed && v.failure != nil {
			v.statusbar.SetError(v.failure)
		}
	}
}

func (v *View) focus() {
	v.focusInput = true
	v.input.Focus()
}

// View renders the ingest view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("Ingest documents"),
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
	v.summary = nil
	v.jobID = ""
	v.failure = nil
	v.statusbar.Clear()
}

// JobID returns the id of the last started ingestion job.
func (v *View) JobID() string {
	return v.jobID
}

// Summary returns the last ingestion summary received.
func (v *View) Summary() *domain.IngestionSummary {
	return v.summary
}

// Transcript returns the transcript text.
func (v *View) Transcript() string {
	return v.transcript.Content()
}

// State returns the state of the last job.
func (v *View) State() domain.JobState {
	return v.statusbar.State()
}
