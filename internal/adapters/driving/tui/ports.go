// Package tui provides an interactive terminal user interface for ragdesk.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ragdesk/internal/connectors/filesystem"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Jobs starts ingestion and query jobs and streams their events.
	Jobs driving.JobController

	// Index lists and removes stored collections.
	Index driving.IndexService

	// Settings manages application settings. Optional.
	Settings driving.SettingsService

	// Supports reports whether a file can be ingested. Nil accepts
	// every file found under a directory.
	Supports filesystem.SupportFunc

	// EmbeddingModel and GenerationModel are passed to started jobs.
	// Empty values use the controller defaults.
	EmbeddingModel  string
	GenerationModel string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Jobs == nil {
		return ErrMissingJobController
	}
	if p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}
