package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService lists and removes stored collections. When jobs is set,
// collections held by a job are not removed.
type IndexService struct {
	store driven.CollectionStore
	jobs  *Controller
}

// NewIndexService creates an index service. jobs may be nil.
func NewIndexService(store driven.CollectionStore, jobs *Controller) *IndexService {
	return &IndexService{store: store, jobs: jobs}
}

// List returns all collections, most recent first.
func (s *IndexService) List(ctx context.Context) ([]domain.CollectionInfo, error) {
	infos, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return infos, nil
}

// Delete removes one collection. It fails with domain.ErrBusy while a job
// is running on it.
func (s *IndexService) Delete(ctx context.Context, name string) error {
	if s.jobs != nil {
		release, err := s.jobs.reserve(name)
		if err != nil {
			return fmt.Errorf("delete collection %s: %w", name, err)
		}
		defer release()
	}

	if err := s.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	if s.jobs != nil {
		s.jobs.forget(name)
	}
	return nil
}

// Reset removes every collection. Nothing is removed while any collection
// is held by a job.
func (s *IndexService) Reset(ctx context.Context) (int, error) {
	infos, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	if s.jobs != nil {
		for _, info := range infos {
			release, err := s.jobs.reserve(info.Name)
			if err != nil {
				return 0, fmt.Errorf("reset collections: %w", err)
			}
			defer release()
		}
	}

	removed := 0
	for _, info := range infos {
		if err := s.store.Delete(ctx, info.Name); err != nil {
			return removed, fmt.Errorf("delete collection %s: %w", info.Name, err)
		}
		if s.jobs != nil {
			s.jobs.forget(info.Name)
		}
		removed++
		logger.Debug("removed collection %s (%d chunks)", info.Name, info.Chunks)
	}
	return removed, nil
}
