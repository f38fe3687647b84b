package tui

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/events"
)

// MockJobController publishes events on a real channel so subscriptions
// behave as in production.
type MockJobController struct {
	events    *events.Channel
	cancelled int
	queries   []string
	ingested  [][]domain.Document
	current   *domain.CollectionInfo
	startErr  error
}

func newMockJobController() *MockJobController {
	return &MockJobController{events: events.NewChannel()}
}

func (m *MockJobController) StartIngestion(_ context.Context, docs []domain.Document, _ string) (string, error) {
	if m.startErr != nil {
		return "", m.startErr
	}
	m.ingested = append(m.ingested, docs)
	return "ingest-1", nil
}

func (m *MockJobController) StartQuery(_ context.Context, text, _ string) (string, error) {
	if m.startErr != nil {
		return "", m.startErr
	}
	m.queries = append(m.queries, text)
	return "query-1", nil
}

func (m *MockJobController) Cancel() int {
	m.cancelled++
	return 0
}

func (m *MockJobController) CancelJob(string) error { return nil }

func (m *MockJobController) Subscribe() driving.EventSubscription {
	return m.events.Subscribe()
}

func (m *MockJobController) Wait(context.Context, string) (domain.JobState, error) {
	return domain.StateCompleted, nil
}

func (m *MockJobController) Attach(context.Context, string) (*domain.CollectionInfo, error) {
	if m.current == nil {
		return nil, domain.ErrNoData
	}
	return m.current, nil
}

func (m *MockJobController) Current() (domain.CollectionInfo, bool) {
	if m.current == nil {
		return domain.CollectionInfo{}, false
	}
	return *m.current, true
}

func (m *MockJobController) Jobs() []driving.JobStatus { return nil }

// MockIndexService returns a fixed collection list.
type MockIndexService struct {
	collections []domain.CollectionInfo
	deleted     []string
}

func (m *MockIndexService) List(context.Context) ([]domain.CollectionInfo, error) {
	return m.collections, nil
}

func (m *MockIndexService) Delete(_ context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	return nil
}

func (m *MockIndexService) Reset(context.Context) (int, error) {
	return len(m.collections), nil
}
