package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyEmbedRate      = "embedding.requests_per_second"
	keyEmbedCacheTTL  = "embedding.cache_ttl_seconds"
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMTimeout     = "llm.timeout"
	keyChunkSize      = "ingest.chunk_size"
	keyChunkOverlap   = "ingest.chunk_overlap"
	keyTopK           = "query.top_k"
	keyTemperature    = "query.temperature"
	keyRetryAttempts  = "retry.max_attempts"
	keyRetryDelay     = "retry.delay_ms"
	keyStorageBackend = "storage.backend"
	keyStoragePath    = "storage.path"
	keyLogFile        = "log.file"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
)

// setting maps one config key onto a field of AppSettings.
type setting struct {
	key   string
	kind  valueKind
	read  func(s *domain.AppSettings) any
	write func(s *domain.AppSettings, v any)
}

var settingsTable = []setting{
	{keyEmbedProvider, kindString,
		func(s *domain.AppSettings) any { return s.Embedding.Provider.String() },
		func(s *domain.AppSettings, v any) { s.Embedding.Provider = domain.AIProvider(v.(string)) }},
	{keyEmbedModel, kindString,
		func(s *domain.AppSettings) any { return s.Embedding.Model },
		func(s *domain.AppSettings, v any) { s.Embedding.Model = v.(string) }},
	{keyEmbedBaseURL, kindString,
		func(s *domain.AppSettings) any { return s.Embedding.BaseURL },
		func(s *domain.AppSettings, v any) { s.Embedding.BaseURL = v.(string) }},
	{keyEmbedAPIKey, kindString,
		func(s *domain.AppSettings) any { return s.Embedding.APIKey },
		func(s *domain.AppSettings, v any) { s.Embedding.APIKey = v.(string) }},
	{keyEmbedDims, kindInt,
		func(s *domain.AppSettings) any { return s.Embedding.Dimensions },
		func(s *domain.AppSettings, v any) { s.Embedding.Dimensions = v.(int) }},
	{keyEmbedRate, kindFloat,
		func(s *domain.AppSettings) any { return s.Embedding.RequestsPerSecond },
		func(s *domain.AppSettings, v any) { s.Embedding.RequestsPerSecond = v.(float64) }},
	{keyEmbedCacheTTL, kindInt,
		func(s *domain.AppSettings) any { return int(s.Embedding.CacheTTL / time.Second) },
		func(s *domain.AppSettings, v any) { s.Embedding.CacheTTL = time.Duration(v.(int)) * time.Second }},
	{keyLLMProvider, kindString,
		func(s *domain.AppSettings) any { return s.LLM.Provider.String() },
		func(s *domain.AppSettings, v any) { s.LLM.Provider = domain.AIProvider(v.(string)) }},
	{keyLLMModel, kindString,
		func(s *domain.AppSettings) any { return s.LLM.Model },
		func(s *domain.AppSettings, v any) { s.LLM.Model = v.(string) }},
	{keyLLMBaseURL, kindString,
		func(s *domain.AppSettings) any { return s.LLM.BaseURL },
		func(s *domain.AppSettings, v any) { s.LLM.BaseURL = v.(string) }},
	{keyLLMTimeout, kindInt,
		func(s *domain.AppSettings) any { return int(s.LLM.Timeout / time.Second) },
		func(s *domain.AppSettings, v any) { s.LLM.Timeout = time.Duration(v.(int)) * time.Second }},
	{keyChunkSize, kindInt,
		func(s *domain.AppSettings) any { return s.Ingest.ChunkSize },
		func(s *domain.AppSettings, v any) { s.Ingest.ChunkSize = v.(int) }},
	{keyChunkOverlap, kindInt,
		func(s *domain.AppSettings) any { return s.Ingest.ChunkOverlap },
		func(s *domain.AppSettings, v any) { s.Ingest.ChunkOverlap = v.(int) }},
	{keyTopK, kindInt,
		func(s *domain.AppSettings) any { return s.Query.TopK },
		func(s *domain.AppSettings, v any) { s.Query.TopK = v.(int) }},
	{keyTemperature, kindFloat,
		func(s *domain.AppSettings) any { return s.Query.Temperature },
		func(s *domain.AppSettings, v any) { s.Query.Temperature = v.(float64) }},
	{keyRetryAttempts, kindInt,
		func(s *domain.AppSettings) any { return s.Retry.MaxAttempts },
		func(s *domain.AppSettings, v any) { s.Retry.MaxAttempts = v.(int) }},
	{keyRetryDelay, kindInt,
		func(s *domain.AppSettings) any { return int(s.Retry.Delay / time.Millisecond) },
		func(s *domain.AppSettings, v any) { s.Retry.Delay = time.Duration(v.(int)) * time.Millisecond }},
	{keyStorageBackend, kindString,
		func(s *domain.AppSettings) any { return string(s.Storage.Backend) },
		func(s *domain.AppSettings, v any) { s.Storage.Backend = domain.StorageBackend(v.(string)) }},
	{keyStoragePath, kindString,
		func(s *domain.AppSettings) any { return s.Storage.Path },
		func(s *domain.AppSettings, v any) { s.Storage.Path = v.(string) }},
	{keyLogFile, kindString,
		func(s *domain.AppSettings) any { return s.LogFile },
		func(s *domain.AppSettings, v any) { s.LogFile = v.(string) }},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	for _, st := range settingsTable {
		if v, ok := s.value(st); ok {
			st.write(&settings, v)
		}
	}

	// Invalid providers fall back to defaults.
	defaults := domain.DefaultAppSettings()
	if !settings.Embedding.Provider.IsValid() {
		settings.Embedding.Provider = defaults.Embedding.Provider
	}
	if !settings.LLM.Provider.IsValid() {
		settings.LLM.Provider = defaults.LLM.Provider
	}
	if !settings.Storage.Backend.IsValid() {
		settings.Storage.Backend = defaults.Storage.Backend
	}

	// Dimensions follow the model unless stored explicitly.
	if _, ok := s.configStore.Get(keyEmbedDims); !ok {
		settings.Embedding.Dimensions = domain.DimensionsFor(settings.Embedding.Model, domain.DefaultDimensions)
	}

	return settings, nil
}

// value reads a stored key with its expected type. Wrongly typed values
// are treated as unset.
func (s *SettingsService) value(st setting) (any, bool) {
	raw, ok := s.configStore.Get(st.key)
	if !ok {
		return nil, false
	}

	switch st.kind {
	case kindString:
		v, ok := raw.(string)
		return v, ok
	case kindInt:
		switch v := raw.(type) {
		case int:
			return v, true
		case int64:
			return int(v), true
		}
		return nil, false
	case kindFloat:
		switch v := raw.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
		return nil, false
	}
	return nil, false
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	for _, st := range settingsTable {
		v := st.read(&settings)
		if str, ok := v.(string); ok && str == "" {
			if err := s.configStore.Delete(st.key); err != nil {
				return fmt.Errorf("save %s: %w", st.key, err)
			}
			continue
		}
		if err := s.configStore.Set(st.key, v); err != nil {
			return fmt.Errorf("save %s: %w", st.key, err)
		}
	}
	return nil
}

// Set parses value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	st, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseValue(st.kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	st.write(&settings, parsed)

	if key == keyEmbedModel {
		if _, explicit := s.configStore.Get(keyEmbedDims); !explicit {
			settings.Embedding.Dimensions = domain.DimensionsFor(parsed.(string), domain.DefaultDimensions)
		}
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseValue(kind valueKind, value string) (any, error) {
	switch kind {
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	default:
		return value, nil
	}
}

func lookupSetting(key string) (setting, bool) {
	for _, st := range settingsTable {
		if st.key == key {
			return st, true
		}
	}
	return setting{}, false
}

// Reset removes every stored setting.
func (s *SettingsService) Reset() error {
	var errs []error
	for _, st := range settingsTable {
		if err := s.configStore.Delete(st.key); err != nil {
			errs = append(errs, fmt.Errorf("reset %s: %w", st.key, err))
		}
	}
	return errors.Join(errs...)
}

// Keys returns the settable keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingsTable))
	for i, st := range settingsTable {
		keys[i] = st.key
	}
	return keys
}

// Values returns the current value of every key in display order.
func (s *SettingsService) Values() ([]driving.SettingValue, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	values := make([]driving.SettingValue, len(settingsTable))
	for i, st := range settingsTable {
		values[i] = driving.SettingValue{
			Key:    st.key,
			Value:  fmt.Sprint(st.read(&settings)),
			Secret: st.key == keyEmbedAPIKey,
		}
	}
	return values, nil
}

// Defaults returns default settings.
func (s *SettingsService) Defaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}
