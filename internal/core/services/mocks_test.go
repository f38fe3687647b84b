package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/extractors"
	"github.com/custodia-labs/ragdesk/internal/postprocessors/chunker"
)

// --- Mock implementations ---

// mockEmbedder derives a deterministic vector from letter frequencies.
type mockEmbedder struct {
	model string
	dims  int

	mu      sync.Mutex
	calls   int
	onEmbed func(call int)
	err     error

	// failText, when set, fails any batch containing a text with it.
	failText string
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{model: "mock-embed", dims: 4}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	call, hook, err, failText := m.calls, m.onEmbed, m.err, m.failText
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return nil, err
	}
	for _, text := range texts {
		if failText != "" && strings.Contains(text, failText) {
			return nil, errors.Join(domain.ErrTransientProvider, errors.New("model not loaded"))
		}
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, m.dims)
		for _, r := range strings.ToLower(text) {
			if r >= 'a' && r < 'a'+rune(m.dims) {
				v[r-'a']++
			}
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return m.dims }
func (m *mockEmbedder) ModelName() string { return m.model }
func (m *mockEmbedder) Close() error      { return nil }

func (m *mockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockGenerator streams a fixed list of tokens.
type mockGenerator struct {
	tokens []string
	err    error

	// block, when set, makes Stream wait for cancellation after the
	// first token.
	block bool

	mu      sync.Mutex
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var b strings.Builder
	err := m.Stream(ctx, prompt, opts, func(tok string) error {
		b.WriteString(tok)
		return nil
	})
	return b.String(), err
}

func (m *mockGenerator) Stream(ctx context.Context, prompt string, opts driven.GenerateOptions, fn driven.TokenFunc) error {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	for i, tok := range m.tokens {
		if err := fn(tok); err != nil {
			return err
		}
		if m.block && i == 0 {
			<-ctx.Done()
			return ctx.Err()
		}
	}
	return m.err
}

func (m *mockGenerator) Close() error { return nil }

func (m *mockGenerator) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockCatalog implements driven.ModelCatalog.
type mockCatalog struct {
	models  []string
	pingErr error
	listErr error
}

func (m *mockCatalog) ListModels(context.Context) ([]string, error) {
	return m.models, m.listErr
}

func (m *mockCatalog) Ping(context.Context) error { return m.pingErr }

// failingStore fails Open for every collection.
type failingStore struct {
	*memory.CollectionStore
}

func (failingStore) Open(context.Context, domain.CollectionInfo) (driven.Collection, error) {
	return nil, errors.New("disk full")
}

// --- Fixtures ---

type fixture struct {
	controller *Controller
	store      *memory.CollectionStore
	embedder   *mockEmbedder
	generator  *mockGenerator
	sub        driving.EventSubscription
}

func testSettings() domain.AppSettings {
	settings := domain.DefaultAppSettings()
	settings.Ingest.ChunkSize = 500
	settings.Ingest.ChunkOverlap = 100
	settings.Query.TopK = 3
	return settings
}

func newFixture(t *testing.T, settings domain.AppSettings) *fixture {
	t.Helper()

	f := &fixture{
		store:     memory.NewCollectionStore(),
		embedder:  newMockEmbedder(),
		generator: &mockGenerator{tokens: []string{"The ", "answer."}},
	}
	f.controller = NewController(ControllerConfig{
		Store:      f.store,
		Embedders:  func(string) (driven.Embedder, error) { return f.embedder, nil },
		Generator:  f.generator,
		Extractors: extractors.Default(),
		Chunkers:   chunker.Factory(),
		Settings:   settings,
	})
	f.sub = f.controller.Subscribe()
	t.Cleanup(func() { _ = f.controller.Close() })
	return f
}

// wait blocks until the job is terminal and returns its events.
func (f *fixture) wait(t *testing.T, id string) (domain.JobState, []domain.Event) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state, err := f.controller.Wait(ctx, id)
	require.NoError(t, err)
	return state, eventsFor(f.sub.Drain(), id)
}

func (f *fixture) ingest(t *testing.T, docs ...domain.Document) (domain.JobState, []domain.Event) {
	t.Helper()
	id, err := f.controller.StartIngestion(context.Background(), docs, "mock-embed")
	require.NoError(t, err)
	return f.wait(t, id)
}

func eventsFor(evs []domain.Event, id string) []domain.Event {
	var out []domain.Event
	for _, ev := range evs {
		if ev.JobID == id {
			out = append(out, ev)
		}
	}
	return out
}

func ofType(evs []domain.Event, typ domain.EventType) []domain.Event {
	var out []domain.Event
	for _, ev := range evs {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func states(evs []domain.Event) []domain.JobState {
	var out []domain.JobState
	for _, ev := range ofType(evs, domain.EventState) {
		out = append(out, ev.State)
	}
	return out
}
