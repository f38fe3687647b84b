package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// JobController starts pipeline jobs in the background and reports their
// progress as events.
type JobController interface {
	// StartIngestion validates its input and starts an ingestion job.
	// Returns the job id, or an error without starting anything.
	// A second ingestion of the same collection while one is active fails
	// with domain.ErrBusy.
	StartIngestion(ctx context.Context, docs []domain.Document, embeddingModel string) (string, error)

	// StartQuery starts a query job against the current collection.
	// Fails with domain.ErrNoData when no completed collection exists.
	StartQuery(ctx context.Context, text, generationModel string) (string, error)

	// Cancel requests cancellation of every active job and returns how
	// many were signalled.
	Cancel() int

	// CancelJob requests cancellation of one job.
	// Returns domain.ErrNotFound if the job is not active.
	CancelJob(id string) error

	// Subscribe returns a subscription receiving every event published
	// after the call.
	Subscribe() EventSubscription

	// Wait blocks until the job reaches a terminal state.
	Wait(ctx context.Context, id string) (domain.JobState, error)

	// Attach selects an existing collection for queries. An empty name
	// selects the most recently completed one.
	Attach(ctx context.Context, name string) (*domain.CollectionInfo, error)

	// Current returns the collection queries run against, if any.
	Current() (domain.CollectionInfo, bool)

	// Jobs returns the status of active jobs.
	Jobs() []JobStatus
}

// EventSubscription is an unbounded FIFO of job events.
type EventSubscription interface {
	// Drain removes and returns all pending events in publish order.
	Drain() []domain.Event

	// Notify is signalled when events become pending.
	Notify() <-chan struct{}

	// Poll drains the queue every interval and passes non-empty batches
	// to fn until fn returns false, the subscription closes or ctx ends.
	Poll(ctx context.Context, interval time.Duration, fn func([]domain.Event) bool) error

	// Close detaches the subscription.
	Close()
}

// JobStatus describes a running job.
type JobStatus struct {
	ID         string
	Kind       domain.JobKind
	State      domain.JobState
	Collection string
	StartedAt  time.Time
}
