package tui

import "errors"

// ErrMissingJobController is returned when the job controller is not provided.
var ErrMissingJobController = errors.New("tui: job controller is required")

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("tui: index service is required")
