package mcp

import (
	"github.com/custodia-labs/ragdesk/internal/connectors/filesystem"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Jobs runs ingestion and query jobs.
	Jobs driving.JobController

	// Models reports on the model daemon. Optional.
	Models driving.ModelService

	// Index lists stored collections. Optional.
	Index driving.IndexService

	// Supports filters files found under ingested directories.
	Supports filesystem.SupportFunc

	// EmbeddingModel and GenerationModel are used when a tool call
	// names no model.
	EmbeddingModel  string
	GenerationModel string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p == nil || p.Jobs == nil {
		return ErrMissingJobController
	}
	return nil
}
