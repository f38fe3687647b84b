// Package mcp provides an MCP (Model Context Protocol) server adapter for ragdesk.
// It lets AI assistants ingest local documents and ask questions about them.
package mcp

import "errors"

// ErrMissingJobController is returned when the job controller is not provided.
var ErrMissingJobController = errors.New("mcp: job controller is required")

// errNotTerminal is returned when a job's event stream ends before a
// terminal state is seen.
var errNotTerminal = errors.New("mcp: job ended without a terminal state")
