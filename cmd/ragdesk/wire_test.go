package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestBootstrap_MemoryBackend(t *testing.T) {
	path := writeConfig(t, "[storage]\nbackend = \"memory\"\n")

	s, err := bootstrap(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Err)
	assert.NotNil(t, s.Jobs)
	assert.NotNil(t, s.Models)
	assert.NotNil(t, s.Index)
	assert.NotNil(t, s.Settings)
	require.NotNil(t, s.Supports)
	assert.True(t, s.Supports(domain.NewDocument("notes.txt")))
	assert.Equal(t, domain.StorageMemory, s.AppSettings.Storage.Backend)
}

func TestBootstrap_SQLiteBackend(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, "[storage]\nbackend = \"sqlite\"\npath = \""+filepath.ToSlash(dataDir)+"\"\n")

	s, err := bootstrap(path)
	require.NoError(t, err)

	require.NoError(t, s.Err)
	require.NoError(t, s.Close())
	assert.FileExists(t, filepath.Join(dataDir, "index.db"))
}

func TestBootstrap_InvalidSettingsKeepSettingsService(t *testing.T) {
	path := writeConfig(t, "[ingest]\nchunk_size = 200\nchunk_overlap = 500\n")

	s, err := bootstrap(path)
	require.NoError(t, err)

	require.Error(t, s.Err)
	assert.ErrorIs(t, s.Err, domain.ErrConfiguration)
	assert.NotNil(t, s.Settings)
	assert.Nil(t, s.Jobs)
	assert.NoError(t, s.Close())
}

func TestBootstrap_MissingConfigUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	s, err := bootstrap(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.Equal(t, domain.DefaultEmbeddingModel, s.AppSettings.Embedding.Model)
	assert.Equal(t, domain.DefaultLLMModel, s.AppSettings.LLM.Model)
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, _, err := openStore(domain.StorageSettings{Backend: "redis"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
