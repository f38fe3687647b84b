package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/events"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure Controller implements the interface.
var _ driving.JobController = (*Controller)(nil)

// maxFinished bounds the finished jobs kept for Wait. The oldest is
// dropped first.
const maxFinished = 64

// EmbedderFactory builds an embedder for a model name.
type EmbedderFactory func(model string) (driven.Embedder, error)

// ControllerConfig holds the collaborators of a Controller.
type ControllerConfig struct {
	Store      driven.CollectionStore
	Embedders  EmbedderFactory
	Generator  driven.Generator
	Extractors driven.ExtractorRegistry
	Chunkers   driven.ChunkerFactory
	Settings   domain.AppSettings

	// Events receives every job event. A new channel is created when nil.
	Events *events.Channel
}

// Controller starts jobs on worker goroutines. At most one ingestion and
// one query may run per collection, and never both at once.
type Controller struct {
	store      driven.CollectionStore
	embedders  EmbedderFactory
	generator  driven.Generator
	extractors driven.ExtractorRegistry
	chunkers   driven.ChunkerFactory
	settings   domain.AppSettings
	events     *events.Channel

	mu       sync.Mutex
	active   map[string]*job
	finished map[string]*job
	order    []string
	busy     map[string]*job
	removing map[string]bool
	current  *domain.CollectionInfo
	wg       sync.WaitGroup
}

// NewController creates a controller.
func NewController(cfg ControllerConfig) *Controller {
	ch := cfg.Events
	if ch == nil {
		ch = events.NewChannel()
	}
	return &Controller{
		store:      cfg.Store,
		embedders:  cfg.Embedders,
		generator:  cfg.Generator,
		extractors: cfg.Extractors,
		chunkers:   cfg.Chunkers,
		settings:   cfg.Settings,
		events:     ch,
		active:     make(map[string]*job),
		finished:   make(map[string]*job),
		busy:       make(map[string]*job),
		removing:   make(map[string]bool),
	}
}

// StartIngestion starts ingesting docs into the collection named after
// the document set and the embedding model. The job is cancelled when ctx
// is done.
func (c *Controller) StartIngestion(ctx context.Context, docs []domain.Document, embeddingModel string) (string, error) {
	if len(docs) == 0 {
		return "", domain.ErrNoDocuments
	}
	if strings.TrimSpace(embeddingModel) == "" {
		return "", domain.ErrNoModel
	}
	chunker, err := c.chunkers(c.settings.Ingest.ChunkSize, c.settings.Ingest.ChunkOverlap)
	if err != nil {
		return "", err
	}
	embedder, err := c.embedders(embeddingModel)
	if err != nil {
		return "", fmt.Errorf("create embedder: %w", err)
	}

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name()
	}
	info := domain.CollectionInfo{
		Name:           domain.CollectionName(docs, embedder.ModelName()),
		EmbeddingModel: embedder.ModelName(),
		Dimensions:     embedder.Dimensions(),
		Documents:      names,
	}

	j, err := c.register(ctx, domain.JobIngestion, info.Name)
	if err != nil {
		embedder.Close()
		return "", err
	}

	ij := &ingestionJob{
		job:        j,
		docs:       slices.Clone(docs),
		info:       info,
		store:      c.store,
		embedder:   embedder,
		extractors: c.extractors,
		chunker:    chunker,
		settings:   c.settings,
	}

	j.onTerminal = func(state domain.JobState) {
		if state == domain.StateCompleted {
			c.setCurrent(info.Name)
		}
		c.finish(j)
	}

	logger.Debug("starting ingestion %s of %d documents into %s", j.id, len(docs), info.Name)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer embedder.Close()
		ij.run()
	}()
	return j.id, nil
}

// StartQuery starts a query against the current collection, attaching the
// most recently completed one if none is selected.
func (c *Controller) StartQuery(ctx context.Context, text, generationModel string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrEmptyQuery
	}
	if strings.TrimSpace(generationModel) == "" {
		return "", domain.ErrNoModel
	}

	info, ok := c.Current()
	if !ok {
		attached, err := c.Attach(ctx, "")
		if err != nil {
			return "", err
		}
		info = *attached
	}

	embedder, err := c.embedders(info.EmbeddingModel)
	if err != nil {
		return "", fmt.Errorf("create embedder: %w", err)
	}

	j, err := c.register(ctx, domain.JobQuery, info.Name)
	if err != nil {
		embedder.Close()
		return "", err
	}

	qj := &queryJob{
		job:      j,
		query:    text,
		model:    generationModel,
		info:     info,
		store:    c.store,
		embedder: embedder,
		llm:      c.generator,
		settings: c.settings.Query,
	}

	qj.forget = func() { c.forget(info.Name) }
	j.onTerminal = func(domain.JobState) {
		c.finish(j)
	}

	logger.Debug("starting query %s on %s", j.id, info.Name)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer embedder.Close()
		qj.run()
	}()
	return j.id, nil
}

// register reserves the collection for a new job.
func (c *Controller) register(ctx context.Context, kind domain.JobKind, collection string) (*job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if other, ok := c.busy[collection]; ok {
		return nil, fmt.Errorf("%w: %s job %s is active on %s", domain.ErrBusy, other.kind, other.id, collection)
	}
	if c.removing[collection] {
		return nil, fmt.Errorf("%w: %s is being removed", domain.ErrBusy, collection)
	}

	j := newJob(ctx, kind, collection, c.events.Publish)
	c.active[j.id] = j
	c.busy[collection] = j
	return j, nil
}

func (c *Controller) finish(j *job) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.active, j.id)
	if c.busy[j.collection] == j {
		delete(c.busy, j.collection)
	}
	c.finished[j.id] = j
	c.order = append(c.order, j.id)
	for len(c.order) > maxFinished {
		delete(c.finished, c.order[0])
		c.order = c.order[1:]
	}
}

// reserve blocks new jobs on a collection until release is called. It
// fails with domain.ErrBusy while a job holds the collection.
func (c *Controller) reserve(name string) (release func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if other, ok := c.busy[name]; ok {
		return nil, fmt.Errorf("%w: %s job %s is active on %s", domain.ErrBusy, other.kind, other.id, name)
	}
	if c.removing[name] {
		return nil, fmt.Errorf("%w: %s is being removed", domain.ErrBusy, name)
	}
	c.removing[name] = true
	return func() {
		c.mu.Lock()
		delete(c.removing, name)
		c.mu.Unlock()
	}, nil
}

// forget clears the current collection if it is name.
func (c *Controller) forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.current.Name == name {
		c.current = nil
	}
}

func (c *Controller) setCurrent(name string) {
	info, err := c.store.Get(context.Background(), name)
	if err != nil {
		logger.Warn("reload collection %s: %v", name, err)
		return
	}
	c.mu.Lock()
	c.current = info
	c.mu.Unlock()
}

// Cancel signals every active job.
func (c *Controller) Cancel() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, j := range c.active {
		j.cancel()
	}
	return len(c.active)
}

// CancelJob signals one job.
func (c *Controller) CancelJob(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.active[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	j.cancel()
	return nil
}

// Subscribe returns a new event subscription.
func (c *Controller) Subscribe() driving.EventSubscription {
	return c.events.Subscribe()
}

// Wait blocks until the job is terminal and all its events are published.
// The terminal state of a finished job is returned once; later calls fail
// with domain.ErrNotFound. Only the most recent finished jobs are kept.
func (c *Controller) Wait(ctx context.Context, id string) (domain.JobState, error) {
	c.mu.Lock()
	j, ok := c.active[id]
	if !ok {
		j, ok = c.finished[id]
	}
	c.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}

	select {
	case <-j.done:
	case <-ctx.Done():
		return j.State(), ctx.Err()
	}

	c.mu.Lock()
	if _, ok := c.finished[id]; ok {
		delete(c.finished, id)
		c.order = slices.DeleteFunc(c.order, func(other string) bool { return other == id })
	}
	c.mu.Unlock()
	return j.State(), nil
}

// Attach selects a completed collection for queries.
func (c *Controller) Attach(ctx context.Context, name string) (*domain.CollectionInfo, error) {
	var (
		info *domain.CollectionInfo
		err  error
	)
	if name == "" {
		info, err = c.store.Latest(ctx)
	} else {
		info, err = c.store.Get(ctx, name)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}
	if !info.IsCompleted() {
		return nil, fmt.Errorf("%w: collection %s has not completed ingestion", domain.ErrNoData, info.Name)
	}

	c.mu.Lock()
	c.current = info
	c.mu.Unlock()

	logger.Debug("attached collection %s (%d chunks)", info.Name, info.Chunks)
	return info, nil
}

// Current returns the collection queries run against.
func (c *Controller) Current() (domain.CollectionInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return domain.CollectionInfo{}, false
	}
	return *c.current, true
}

// Jobs returns active jobs, oldest first.
func (c *Controller) Jobs() []driving.JobStatus {
	c.mu.Lock()
	out := make([]driving.JobStatus, 0, len(c.active))
	for _, j := range c.active {
		out = append(out, j.status())
	}
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b driving.JobStatus) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return out
}

// Close cancels active jobs, waits for their workers and closes the event
// channel.
func (c *Controller) Close() error {
	c.Cancel()
	c.wg.Wait()
	c.events.Close()
	return nil
}
