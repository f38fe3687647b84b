// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question input and streamed answer view.
	ViewAsk
	// ViewIngest selects documents and shows ingestion progress.
	ViewIngest
	// ViewCollections lists stored collections.
	ViewCollections
	// ViewSettings is the settings configuration view.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewIngest:
		return "ingest"
	case ViewCollections:
		return "collections"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// PollTick fires every poll interval to drain job events.
type PollTick struct{}

// JobEvents carries a drained batch of job events, in publish order.
type JobEvents struct {
	Events []domain.Event
}

// JobStarted reports the result of starting a job.
type JobStarted struct {
	ID   string
	Kind domain.JobKind
	Err  error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// CollectionsLoaded carries the stored collections.
type CollectionsLoaded struct {
	Collections []domain.CollectionInfo
	Current     string
	Err         error
}

// CollectionDeleted signals a collection was removed.
type CollectionDeleted struct {
	Name string
	Err  error
}

// CollectionAttached signals queries now run against a collection.
type CollectionAttached struct {
	Collection *domain.CollectionInfo
	Err        error
}

// SettingsLoaded carries the current setting values.
type SettingsLoaded struct {
	Values []driving.SettingValue
	Err    error
}

// SettingSaved signals one setting was written.
type SettingSaved struct {
	Key string
	Err error
}
