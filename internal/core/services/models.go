package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure ModelService implements the interface.
var _ driving.ModelService = (*ModelService)(nil)

// probeTimeout bounds a liveness probe.
const probeTimeout = 5 * time.Second

// ModelService lists generation models and probes the daemon.
type ModelService struct {
	catalog  driven.ModelCatalog
	settings domain.LLMSettings
}

// NewModelService creates a model service.
func NewModelService(catalog driven.ModelCatalog, settings domain.LLMSettings) *ModelService {
	return &ModelService{catalog: catalog, settings: settings}
}

// ListModels returns installed models, sorted.
func (s *ModelService) ListModels(ctx context.Context) ([]string, error) {
	models, err := s.catalog.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return models, nil
}

// Status probes the daemon and, when reachable, lists its models.
func (s *ModelService) Status(ctx context.Context) driving.ModelStatus {
	status := driving.ModelStatus{
		Provider: s.settings.Provider.String(),
		BaseURL:  s.settings.BaseURL,
	}
	if s.settings.Provider == domain.AIProviderOllamaCLI {
		status.BaseURL = ""
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := s.catalog.Ping(ctx); err != nil {
		status.Err = err
		return status
	}
	status.Reachable = true

	models, err := s.catalog.ListModels(ctx)
	if err != nil {
		status.Err = err
		return status
	}
	status.Models = models
	return status
}
