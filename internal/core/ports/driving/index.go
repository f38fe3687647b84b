package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// IndexService manages stored collections.
type IndexService interface {
	// List returns all collections, most recent first.
	List(ctx context.Context) ([]domain.CollectionInfo, error)

	// Delete removes one collection.
	Delete(ctx context.Context, name string) error

	// Reset removes every collection and returns how many were removed.
	Reset(ctx context.Context) (int, error)
}
