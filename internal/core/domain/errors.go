package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy roots. Every error produced by the pipeline wraps exactly
// one of these so callers can classify failures with errors.Is.
var (
	// ErrConfiguration indicates invalid parameters. No job is started.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransientProvider indicates an embedding or generation call failed
	// after all retry attempts.
	ErrTransientProvider = errors.New("provider unavailable")

	// ErrContent indicates an unreadable document or page. The unit is
	// skipped and the job continues.
	ErrContent = errors.New("content error")

	// ErrState indicates an operation is not allowed in the current state.
	ErrState = errors.New("state error")
)

// Specific errors. Each wraps a taxonomy root.
var (
	// ErrInvalidChunking indicates overlap >= size or a non-positive size.
	ErrInvalidChunking = fmt.Errorf("%w: chunk overlap must be smaller than chunk size", ErrConfiguration)

	// ErrNoModel indicates no embedding or generation model was selected.
	ErrNoModel = fmt.Errorf("%w: no model selected", ErrConfiguration)

	// ErrNoDocuments indicates ingestion was requested without documents.
	ErrNoDocuments = fmt.Errorf("%w: no documents selected", ErrConfiguration)

	// ErrEmptyQuery indicates a blank query text.
	ErrEmptyQuery = fmt.Errorf("%w: query text is empty", ErrConfiguration)

	// ErrInvalidInput indicates a malformed setting value or argument.
	ErrInvalidInput = fmt.Errorf("%w: invalid input", ErrConfiguration)

	// ErrUnsupportedType indicates an unknown provider or file type.
	ErrUnsupportedType = fmt.Errorf("%w: unsupported type", ErrConfiguration)

	// ErrBusy indicates a job of the same kind is already active on the index.
	ErrBusy = fmt.Errorf("%w: a job is already running on this index", ErrState)

	// ErrNoData indicates a query was requested before any index was built.
	ErrNoData = fmt.Errorf("%w: no data has been indexed", ErrState)

	// ErrInvalidTransition indicates an illegal job state change.
	ErrInvalidTransition = fmt.Errorf("%w: invalid job state transition", ErrState)

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDimensionMismatch indicates a vector whose length differs from the index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ContentError records a document or page that could not be read.
// Page is zero when the whole document failed.
type ContentError struct {
	Document string
	Page     int
	Err      error
}

// Error implements error.
func (e *ContentError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("content error: %s page %d: %v", e.Document, e.Page, e.Err)
	}
	return fmt.Sprintf("content error: %s: %v", e.Document, e.Err)
}

// Unwrap exposes both the taxonomy root and the underlying cause.
func (e *ContentError) Unwrap() []error {
	return []error{ErrContent, e.Err}
}

// ErrorKind names the taxonomy root of an error.
type ErrorKind string

// Error kinds.
const (
	KindNone          ErrorKind = ""
	KindConfiguration ErrorKind = "configuration"
	KindTransient     ErrorKind = "transient"
	KindContent       ErrorKind = "content"
	KindState         ErrorKind = "state"
	KindInternal      ErrorKind = "internal"
)

// Classify returns the taxonomy kind of err.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrTransientProvider):
		return KindTransient
	case errors.Is(err, ErrContent):
		return KindContent
	case errors.Is(err, ErrState):
		return KindState
	default:
		return KindInternal
	}
}
