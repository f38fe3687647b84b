package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/services"
	"github.com/custodia-labs/ragdesk/internal/extractors"
	"github.com/custodia-labs/ragdesk/internal/postprocessors/chunker"
)

// mockEmbedder counts vowels, which is enough for retrieval to rank.
type mockEmbedder struct{}

func (mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, 5)
		for _, r := range strings.ToLower(text) {
			if j := strings.IndexRune("aeiou", r); j >= 0 {
				v[j]++
			}
		}
		out[i] = v
	}
	return out, nil
}

func (mockEmbedder) Dimensions() int   { return 5 }
func (mockEmbedder) ModelName() string { return "mock-embed" }
func (mockEmbedder) Close() error      { return nil }

// mockGenerator streams fixed tokens and serves a fixed model list.
type mockGenerator struct {
	tokens  []string
	models  []string
	pingErr error
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return strings.Join(m.tokens, ""), nil
}

func (m *mockGenerator) Stream(_ context.Context, _ string, _ driven.GenerateOptions, fn driven.TokenFunc) error {
	for _, tok := range m.tokens {
		if err := fn(tok); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockGenerator) Close() error { return nil }

func (m *mockGenerator) ListModels(context.Context) ([]string, error) { return m.models, nil }

func (m *mockGenerator) Ping(context.Context) error { return m.pingErr }

type testServices struct {
	controller *services.Controller
	store      *memory.CollectionStore
	generator  *mockGenerator
}

// setupTestServices installs a real controller over in-memory stores and
// mock providers.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	settings := domain.DefaultAppSettings()
	settings.Embedding.Model = "mock-embed"
	settings.LLM.Model = "llama3"
	settings.Ingest.ChunkSize = 200
	settings.Ingest.ChunkOverlap = 20

	ts := &testServices{
		store:     memory.NewCollectionStore(),
		generator: &mockGenerator{tokens: []string{"Paris ", "is the capital."}, models: []string{"llama3", "mistral"}},
	}
	registry := extractors.Default()
	ts.controller = services.NewController(services.ControllerConfig{
		Store:      ts.store,
		Embedders:  func(string) (driven.Embedder, error) { return mockEmbedder{}, nil },
		Generator:  ts.generator,
		Extractors: registry,
		Chunkers:   chunker.Factory(),
		Settings:   settings,
	})

	SetServices(&Services{
		Jobs:        ts.controller,
		Settings:    services.NewSettingsService(memory.NewConfigStore(nil)),
		Models:      services.NewModelService(ts.generator, settings.LLM),
		Index:       services.NewIndexService(ts.store, ts.controller),
		Supports:    registry.Supports,
		AppSettings: settings,
	})

	t.Cleanup(func() {
		_ = ts.controller.Close()
		SetServices(&Services{AppSettings: domain.DefaultAppSettings()})
	})
	return ts
}

// execute runs the root command with args and returns its output. Flags
// are restored to their defaults afterwards.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
