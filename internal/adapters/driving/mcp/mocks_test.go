package mcp

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/events"
)

// mockJobController publishes a scripted event sequence when a job starts.
type mockJobController struct {
	events    *events.Channel
	script    []domain.Event
	startErr  error
	attachErr error

	queries   []string
	models    []string
	docs      []domain.Document
	attached  []string
	cancelled []string
	current   *domain.CollectionInfo
	active    []driving.JobStatus
}

func newMockJobController(script ...domain.Event) *mockJobController {
	return &mockJobController{events: events.NewChannel(), script: script}
}

func (m *mockJobController) start(id string, kind domain.JobKind) (string, error) {
	if m.startErr != nil {
		return "", m.startErr
	}
	for _, ev := range m.script {
		ev.JobID = id
		ev.Kind = kind
		m.events.Publish(ev)
	}
	return id, nil
}

func (m *mockJobController) StartIngestion(_ context.Context, docs []domain.Document, model string) (string, error) {
	m.docs = docs
	m.models = append(m.models, model)
	return m.start("ingest-1", domain.JobIngestion)
}

func (m *mockJobController) StartQuery(_ context.Context, text, model string) (string, error) {
	m.queries = append(m.queries, text)
	m.models = append(m.models, model)
	return m.start("query-1", domain.JobQuery)
}

func (m *mockJobController) Cancel() int { return 0 }

func (m *mockJobController) CancelJob(id string) error {
	m.cancelled = append(m.cancelled, id)
	return nil
}

func (m *mockJobController) Subscribe() driving.EventSubscription {
	return m.events.Subscribe()
}

func (m *mockJobController) Wait(context.Context, string) (domain.JobState, error) {
	return domain.StateCompleted, nil
}

func (m *mockJobController) Attach(_ context.Context, name string) (*domain.CollectionInfo, error) {
	if m.attachErr != nil {
		return nil, m.attachErr
	}
	m.attached = append(m.attached, name)
	return &domain.CollectionInfo{Name: name}, nil
}

func (m *mockJobController) Current() (domain.CollectionInfo, bool) {
	if m.current == nil {
		return domain.CollectionInfo{}, false
	}
	return *m.current, true
}

func (m *mockJobController) Jobs() []driving.JobStatus { return m.active }

// mockModelService is a mock implementation of driving.ModelService.
type mockModelService struct {
	models []string
	status driving.ModelStatus
	err    error
}

func (m *mockModelService) ListModels(context.Context) ([]string, error) {
	return m.models, m.err
}

func (m *mockModelService) Status(context.Context) driving.ModelStatus {
	return m.status
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	collections []domain.CollectionInfo
	err         error
}

func (m *mockIndexService) List(context.Context) ([]domain.CollectionInfo, error) {
	return m.collections, m.err
}

func (m *mockIndexService) Delete(context.Context, string) error { return m.err }

func (m *mockIndexService) Reset(context.Context) (int, error) { return 0, m.err }
