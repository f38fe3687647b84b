package driving

import "context"

// ModelService reports on the model-serving daemon.
type ModelService interface {
	// ListModels returns installed generation models, sorted.
	ListModels(ctx context.Context) ([]string, error)

	// Status probes the daemon.
	Status(ctx context.Context) ModelStatus
}

// ModelStatus is the result of a liveness probe.
type ModelStatus struct {
	Provider  string
	BaseURL   string
	Reachable bool
	Models    []string
	Err       error
}
