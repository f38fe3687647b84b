package driven

import "context"

// ModelCatalog exposes the models installed on the serving daemon.
type ModelCatalog interface {
	// ListModels returns installed model names, sorted.
	ListModels(ctx context.Context) ([]string, error)

	// Ping validates the daemon is reachable.
	Ping(ctx context.Context) error
}
