package domain

// JobKind identifies the pipeline a job runs.
type JobKind string

// Job kinds.
const (
	JobIngestion JobKind = "ingestion"
	JobQuery     JobKind = "query"
)

// JobState is a node of a job's state machine.
type JobState string

// Job states. Ingestion uses Idle, Running and the terminal states.
// Query uses Idle, Retrieving, Generating and the terminal states.
const (
	StateIdle       JobState = "idle"
	StateRunning    JobState = "running"
	StateRetrieving JobState = "retrieving"
	StateGenerating JobState = "generating"
	StateCompleted  JobState = "completed"
	StateCancelled  JobState = "cancelled"
	StateFailed     JobState = "failed"
)

// String returns the string representation.
func (s JobState) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
func (s JobState) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

var transitions = map[JobKind]map[JobState][]JobState{
	JobIngestion: {
		StateIdle:    {StateRunning, StateFailed},
		StateRunning: {StateCompleted, StateCancelled, StateFailed},
	},
	JobQuery: {
		StateIdle:       {StateRetrieving, StateFailed},
		StateRetrieving: {StateGenerating, StateCompleted, StateCancelled, StateFailed},
		StateGenerating: {StateCompleted, StateCancelled, StateFailed},
	},
}

// CanTransition reports whether a job of the given kind may move from one
// state to another.
func CanTransition(kind JobKind, from, to JobState) bool {
	for _, next := range transitions[kind][from] {
		if next == to {
			return true
		}
	}
	return false
}
