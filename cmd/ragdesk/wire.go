package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/services"
	"github.com/custodia-labs/ragdesk/internal/extractors"
	"github.com/custodia-labs/ragdesk/internal/logger"
	"github.com/custodia-labs/ragdesk/internal/postprocessors/chunker"
	"github.com/custodia-labs/ragdesk/internal/retry"
)

// bootstrap builds the services for a config file. Settings problems and
// provider construction failures are reported through Services.Err so the
// settings commands keep working.
func bootstrap(configPath string) (*cli.Services, error) {
	var (
		store *file.ConfigStore
		err   error
	)
	if configPath == "" {
		store, err = file.NewConfigStore("")
	} else {
		store, err = file.NewConfigStoreAt(configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	settingsService := services.NewSettingsService(store)
	out := &cli.Services{
		Settings:    settingsService,
		AppSettings: domain.DefaultAppSettings(),
		Close:       func() error { return nil },
	}

	settings, err := settingsService.Get()
	if err != nil {
		out.Err = err
		return out, nil
	}
	out.AppSettings = settings

	if settings.LogFile != "" {
		if err := logger.SetFile(settings.LogFile); err != nil {
			logger.Warn("log file disabled: %v", err)
		}
	}

	if err := settings.Validate(); err != nil {
		out.Err = err
		return out, nil
	}

	if err := wirePipeline(out, settings); err != nil {
		out.Err = err
	}
	return out, nil
}

// wirePipeline fills the job, model and index services of out.
func wirePipeline(out *cli.Services, settings domain.AppSettings) error {
	policy := retry.FromSettings(settings.Retry)

	generator, err := ai.CreateGenerator(settings.LLM, policy)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	collections, closer, err := openStore(settings.Storage)
	if err != nil {
		return err
	}

	registry := extractors.Default()
	controller := services.NewController(services.ControllerConfig{
		Store:      collections,
		Embedders:  ai.EmbedderFactory(settings.Embedding, policy),
		Generator:  generator,
		Extractors: registry,
		Chunkers:   chunker.Factory(),
		Settings:   settings,
	})

	out.Jobs = controller
	out.Models = services.NewModelService(generator, settings.LLM)
	out.Index = services.NewIndexService(collections, controller)
	out.Supports = registry.Supports
	out.Close = func() error {
		return errors.Join(controller.Close(), closer.Close())
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore opens the collection store selected by settings.
func openStore(s domain.StorageSettings) (driven.CollectionStore, io.Closer, error) {
	switch s.Backend {
	case domain.StorageMemory:
		logger.Debug("using in-memory collection store")
		return memory.NewCollectionStore(), nopCloser{}, nil
	case domain.StorageSQLite, "":
		store, err := sqlite.NewStore(s.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening collection store: %w", err)
		}
		logger.Debug("using sqlite collection store at %s", store.Path())
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("%w: storage backend %q", domain.ErrUnsupportedType, s.Backend)
	}
}
