package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/views/collections"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/views/ingest"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/events"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context jobs are started with.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// sub receives events of every job. Nil until Init.
	sub driving.EventSubscription

	// pollInterval is how often sub is drained.
	pollInterval time.Duration

	menuView        *menu.View
	askView         *ask.View
	ingestView      *ingest.View
	collectionsView *collections.View
	settingsView    *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:           ports,
		ctx:             context.Background(),
		styles:          s,
		pollInterval:    events.DefaultPollInterval,
		menuView:        menu.NewView(s, ports.EmbeddingModel, ports.GenerationModel),
		askView:         ask.NewView(s, km, ports.Jobs, ports.GenerationModel),
		ingestView:      ingest.NewView(s, km, ports.Jobs, ports.Supports, ports.EmbeddingModel),
		collectionsView: collections.NewView(s, ports.Index, ports.Jobs),
		settingsView:    settings.NewView(s, ports.Settings),
		currentView:     messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.askView.WithContext(ctx)
	a.ingestView.WithContext(ctx)
	return a
}

// Init implements tea.Model. It subscribes to job events and starts
// the poll timer.
func (a *App) Init() tea.Cmd {
	if a.sub == nil {
		a.sub = a.ports.Jobs.Subscribe()
	}
	return tea.Batch(
		tea.SetWindowTitle("ragdesk"),
		a.tick(),
	)
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(a.pollInterval, func(time.Time) tea.Msg {
		return messages.PollTick{}
	})
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, a.quit()
		}
		return a, a.forwardKey(msg)

	case messages.PollTick:
		if a.sub == nil {
			return a, nil
		}
		cmds := []tea.Cmd{a.tick()}
		if evs := a.sub.Drain(); len(evs) > 0 {
			cmds = append(cmds, a.dispatchEvents(messages.JobEvents{Events: evs}))
		}
		return a, tea.Batch(cmds...)

	case messages.JobEvents:
		return a, a.dispatchEvents(msg)

	case messages.JobStarted:
		var askCmd, ingestCmd tea.Cmd
		a.askView, askCmd = a.askView.Update(msg)
		a.ingestView, ingestCmd = a.ingestView.Update(msg)
		if msg.Err != nil {
			a.err = msg.Err
		}
		return a, tea.Batch(askCmd, ingestCmd)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewAsk:
			return a, a.askView.Init()
		case messages.ViewIngest:
			return a, a.ingestView.Init()
		case messages.ViewCollections:
			return a, a.collectionsView.Init()
		case messages.ViewSettings:
			a.settingsView.Reset()
			return a, a.settingsView.Init()
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, nil

	case messages.CollectionsLoaded, messages.CollectionDeleted, messages.CollectionAttached:
		a.collectionsView, cmd = a.collectionsView.Update(msg)
		return a, cmd

	case messages.SettingsLoaded, messages.SettingSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewAsk {
			a.askView, cmd = a.askView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		return a, a.quit()
	}

	return a, a.forwardActive(msg)
}

// dispatchEvents hands a batch to both job views. Each view keeps only
// the events of the job it started.
func (a *App) dispatchEvents(msg messages.JobEvents) tea.Cmd {
	var askCmd, ingestCmd tea.Cmd
	a.askView, askCmd = a.askView.Update(msg)
	a.ingestView, ingestCmd = a.ingestView.Update(msg)
	return tea.Batch(askCmd, ingestCmd)
}

func (a *App) forwardKey(msg tea.KeyMsg) tea.Cmd {
	if a.currentView == messages.ViewHelp {
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			a.currentView = messages.ViewMenu
		}
		return nil
	}
	return a.forwardActive(msg)
}

func (a *App) forwardActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewIngest:
		a.ingestView, cmd = a.ingestView.Update(msg)
	case messages.ViewCollections:
		a.collectionsView, cmd = a.collectionsView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// quit cancels running jobs and detaches from the event stream.
func (a *App) quit() tea.Cmd {
	a.ports.Jobs.Cancel()
	if a.sub != nil {
		a.sub.Close()
		a.sub = nil
	}
	return tea.Quit
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewIngest:
		return a.ingestView.View()
	case messages.ViewCollections:
		return a.collectionsView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back to Menu
  ctrl+c      Quit (cancels running jobs)

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Ask / Ingest:
  (type)      Enter a question or paths
  enter       Start the job
  ctrl+x      Cancel the running job
  n           New question or ingestion once finished
  ↑/↓         Scroll output

Collections:
  enter       Use for questions
  d           Delete
  r           Reload

Settings:
  enter       Edit value
  x           Reset all to defaults

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
	a.ingestView.SetDimensions(width, height)
	a.collectionsView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
