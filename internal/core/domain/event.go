package domain

import "time"

// EventType categorises an Event.
type EventType string

// Event types.
const (
	// EventState reports a job state transition.
	EventState EventType = "state"

	// EventLog carries an informational message.
	EventLog EventType = "log"

	// EventProgress reports the current document and page.
	EventProgress EventType = "progress"

	// EventDocument reports a finished document with its chunk count.
	EventDocument EventType = "document"

	// EventSkip reports a page or document that could not be read.
	EventSkip EventType = "skip"

	// EventWarning reports degraded work that did not stop the job, such
	// as a chunk or query stored or searched with a zero vector.
	EventWarning EventType = "warning"

	// EventToken carries one streamed generation increment.
	EventToken EventType = "token"

	// EventSummary carries the ingestion summary. Emitted once on every
	// terminal state of an ingestion job.
	EventSummary EventType = "summary"

	// EventAnswer carries the final answer of a query job.
	EventAnswer EventType = "answer"

	// EventError carries a failure. Failed jobs emit one before their
	// terminal state event.
	EventError EventType = "error"
)

// Event is a notification from a background job. Only the fields relevant
// to the Type are set.
type Event struct {
	JobID string
	Kind  JobKind
	Type  EventType
	Time  time.Time

	State   JobState
	Message string

	Document string
	DocIndex int
	DocTotal int
	Page     int
	Chunks   int

	Token string
	Err   error

	Summary *IngestionSummary
	Answer  *Answer
}

// IsTerminal reports whether the event announces a terminal state.
func (e Event) IsTerminal() bool {
	return e.Type == EventState && e.State.IsTerminal()
}
