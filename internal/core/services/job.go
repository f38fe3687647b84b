package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// job holds the state shared by both pipelines. Cancellation is the
// cancellation of ctx; workers observe it at their checkpoints.
type job struct {
	id         string
	kind       domain.JobKind
	collection string
	startedAt  time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	publish func(domain.Event)

	// onTerminal runs before the terminal state event is published.
	onTerminal func(domain.JobState)

	mu    sync.Mutex
	state domain.JobState
}

func newJob(parent context.Context, kind domain.JobKind, collection string, publish func(domain.Event)) *job {
	ctx, cancel := context.WithCancel(parent)
	return &job{
		id:         uuid.NewString(),
		kind:       kind,
		collection: collection,
		startedAt:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		publish:    publish,
		state:      domain.StateIdle,
	}
}

// State returns the current state.
func (j *job) State() domain.JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *job) status() driving.JobStatus {
	return driving.JobStatus{
		ID:         j.id,
		Kind:       j.kind,
		State:      j.State(),
		Collection: j.collection,
		StartedAt:  j.startedAt,
	}
}

// transition moves the job to state `to` and publishes a state event.
func (j *job) transition(to domain.JobState) error {
	j.mu.Lock()
	from := j.state
	if !domain.CanTransition(j.kind, from, to) {
		j.mu.Unlock()
		return fmt.Errorf("%w: %s job %s -> %s", domain.ErrInvalidTransition, j.kind, from, to)
	}
	j.state = to
	j.mu.Unlock()

	if to.IsTerminal() && j.onTerminal != nil {
		j.onTerminal(to)
	}
	j.emit(domain.Event{Type: domain.EventState, State: to})
	return nil
}

func (j *job) emit(ev domain.Event) {
	ev.JobID = j.id
	ev.Kind = j.kind
	j.publish(ev)
}

func (j *job) log(format string, args ...any) {
	j.emit(domain.Event{Type: domain.EventLog, Message: fmt.Sprintf(format, args...)})
}

// fail publishes err and moves to Failed.
func (j *job) fail(err error) {
	j.emit(domain.Event{Type: domain.EventError, Err: err, Message: err.Error()})
	_ = j.transition(domain.StateFailed)
}

// cancelled reports whether cancellation was requested.
func (j *job) cancelled() bool {
	return j.ctx.Err() != nil
}
