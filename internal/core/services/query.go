package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// queryJob retrieves context for a query and streams a grounded answer.
type queryJob struct {
	*job

	query    string
	model    string
	info     domain.CollectionInfo
	store    driven.CollectionStore
	embedder driven.Embedder
	llm      driven.Generator
	settings domain.QuerySettings

	// forget is called when the collection has been removed.
	forget func()

	answer *domain.Answer
}

func (j *queryJob) run() domain.JobState {
	defer close(j.done)
	defer j.cancel()

	final, err := j.execute()
	switch final {
	case domain.StateFailed:
		logger.Error("query on %s failed: %v", j.info.Name, err)
		j.fail(err)
	default:
		if j.answer != nil {
			answer := *j.answer
			j.emit(domain.Event{Type: domain.EventAnswer, Answer: &answer})
		}
		_ = j.transition(final)
	}
	return final
}

func (j *queryJob) execute() (domain.JobState, error) {
	if err := j.transition(domain.StateRetrieving); err != nil {
		return domain.StateFailed, err
	}

	j.log("Settings: model %s, top_k %d, temperature %.2f", j.model, j.settings.TopK, j.settings.Temperature)
	j.log("Searching for relevant information in %s...", j.info.Name)

	collection, err := j.store.OpenExisting(j.ctx, j.info.Name)
	if errors.Is(err, domain.ErrNotFound) {
		if j.forget != nil {
			j.forget()
		}
		return domain.StateFailed, fmt.Errorf("%w: collection %s no longer exists", domain.ErrNoData, j.info.Name)
	}
	if err != nil {
		return j.stopped(err)
	}
	index, err := NewIndex(collection, j.embedder)
	if err != nil {
		return domain.StateFailed, err
	}

	var embedErr error
	ctx := driven.WithFallback(j.ctx, func(_ int, err error) { embedErr = err })
	results, err := index.Query(ctx, j.query, j.settings.TopK)
	if err != nil {
		return j.stopped(err)
	}
	if j.cancelled() {
		return domain.StateCancelled, nil
	}
	if embedErr != nil {
		// A zero query vector ranks every chunk equally.
		msg := fmt.Sprintf("Embedding the query failed, no context retrieved: %v", embedErr)
		logger.Warn("%s", msg)
		j.emit(domain.Event{Type: domain.EventWarning, Err: embedErr, Message: msg})
		results = nil
	}

	if len(results) == 0 {
		j.log("%s", domain.NoRelevantInformation)
		j.answer = &domain.Answer{
			Query:          j.query,
			Model:          j.model,
			Text:           domain.NoRelevantInformation,
			Sources:        []domain.Provenance{},
			NoRelevantInfo: true,
		}
		return domain.StateCompleted, nil
	}

	excerpts, sources := BuildContext(results)
	prompt := BuildPrompt(j.query, excerpts)

	if err := j.transition(domain.StateGenerating); err != nil {
		return domain.StateFailed, err
	}
	j.log("Generating answer based on %d excerpts...", len(results))

	var answer strings.Builder
	err = j.llm.Stream(j.ctx, prompt, driven.GenerateOptions{
		Model:       j.model,
		Temperature: j.settings.Temperature,
	}, func(token string) error {
		if err := j.ctx.Err(); err != nil {
			return err
		}
		answer.WriteString(token)
		j.emit(domain.Event{Type: domain.EventToken, Token: token})
		return nil
	})
	if err != nil {
		return j.stopped(err)
	}

	j.answer = &domain.Answer{
		Query:   j.query,
		Model:   j.model,
		Text:    strings.TrimSpace(answer.String()),
		Sources: sources,
		Context: excerpts,
	}
	return domain.StateCompleted, nil
}

// stopped maps an error to Cancelled when cancellation caused it.
func (j *queryJob) stopped(err error) (domain.JobState, error) {
	if j.cancelled() {
		return domain.StateCancelled, nil
	}
	return domain.StateFailed, err
}
