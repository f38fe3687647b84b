package services

import (
	"errors"
	"fmt"
	"iter"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// errCancelled unwinds the document loop when a checkpoint observes
// cancellation.
var errCancelled = errors.New("ingestion cancelled")

// ingestionJob runs extract, chunk, embed and upsert over a document set.
type ingestionJob struct {
	*job

	docs       []domain.Document
	info       domain.CollectionInfo
	store      driven.CollectionStore
	embedder   driven.Embedder
	extractors driven.ExtractorRegistry
	chunker    driven.Chunker
	settings   domain.AppSettings

	summary domain.IngestionSummary
}

// run drives the job to a terminal state and returns it. A summary event
// precedes the terminal state event.
func (j *ingestionJob) run() domain.JobState {
	defer close(j.done)
	defer j.cancel()

	j.summary = domain.IngestionSummary{
		Collection: j.info.Name,
		Documents:  make([]domain.DocumentCount, 0, len(j.docs)),
	}

	final, err := j.execute()
	if err != nil {
		logger.Error("ingestion %s failed: %v", j.info.Name, err)
	}

	summary := j.summary
	j.emit(domain.Event{Type: domain.EventSummary, Summary: &summary, Chunks: summary.TotalChunks})

	switch final {
	case domain.StateFailed:
		j.fail(err)
	default:
		_ = j.transition(final)
	}
	logger.Info("ingestion %s %s: %d chunks from %d pages", j.info.Name, final, summary.TotalChunks, summary.PagesSeen)
	return final
}

func (j *ingestionJob) execute() (domain.JobState, error) {
	if err := j.transition(domain.StateRunning); err != nil {
		return domain.StateFailed, err
	}

	j.log("Settings: embedding model %s, chunk size %d, chunk overlap %d",
		j.embedder.ModelName(), j.settings.Ingest.ChunkSize, j.settings.Ingest.ChunkOverlap)
	j.log("Using collection %s", j.info.Name)

	collection, err := j.store.Open(j.ctx, j.info)
	if err != nil {
		return domain.StateFailed, fmt.Errorf("open collection: %w", err)
	}
	index, err := NewIndex(collection, j.embedder)
	if err != nil {
		return domain.StateFailed, err
	}

	for i, doc := range j.docs {
		if j.cancelled() {
			return domain.StateCancelled, nil
		}
		chunks, err := j.ingestDocument(index, i, doc)
		j.summary.Documents = append(j.summary.Documents, domain.DocumentCount{
			Document: doc.Name(),
			Chunks:   chunks,
		})
		if errors.Is(err, errCancelled) {
			return domain.StateCancelled, nil
		}
		j.emit(domain.Event{
			Type:     domain.EventDocument,
			Document: doc.Name(),
			DocIndex: i + 1,
			DocTotal: len(j.docs),
			Chunks:   chunks,
		})
	}

	if err := j.store.MarkCompleted(j.ctx, j.info.Name); err != nil {
		if j.cancelled() {
			return domain.StateCancelled, nil
		}
		return domain.StateFailed, fmt.Errorf("mark collection completed: %w", err)
	}
	return domain.StateCompleted, nil
}

// ingestDocument returns the number of chunks upserted for doc. Content
// failures are reported as skip events; only errCancelled is returned.
func (j *ingestionJob) ingestDocument(index *Index, i int, doc domain.Document) (int, error) {
	pages, err := j.pages(doc)
	if err != nil {
		j.skip(doc, 0, err)
		return 0, nil
	}

	total := 0
	for page, err := range pages {
		if j.cancelled() {
			return total, errCancelled
		}
		j.summary.PagesSeen++

		if err != nil {
			j.skip(doc, page.Number, err)
			continue
		}

		j.emit(domain.Event{
			Type:     domain.EventProgress,
			Document: doc.Name(),
			DocIndex: i + 1,
			DocTotal: len(j.docs),
			Page:     page.Number,
		})

		n, err := j.ingestPage(index, doc, page)
		total += n
		j.summary.TotalChunks += n
		if err != nil {
			if j.cancelled() {
				return total, errCancelled
			}
			j.skip(doc, page.Number, err)
		}
	}
	return total, nil
}

// ingestPage upserts the chunks of one page, checking for cancellation
// before each chunk. Chunks stored with a zero vector are reported as
// warnings.
func (j *ingestionJob) ingestPage(index *Index, doc domain.Document, page domain.Page) (int, error) {
	var embedErr error
	ctx := driven.WithFallback(j.ctx, func(_ int, err error) { embedErr = err })

	n := 0
	for chunk := range j.chunker.Chunks(doc, page) {
		if j.cancelled() {
			return n, errCancelled
		}
		embedErr = nil
		if err := index.Upsert(ctx, chunk); err != nil {
			return n, fmt.Errorf("upsert chunk %d: %w", chunk.Sequence, err)
		}
		if embedErr != nil {
			j.fallback(doc, page.Number, chunk.Sequence, embedErr)
		}
		n++
	}
	return n, nil
}

func (j *ingestionJob) pages(doc domain.Document) (iter.Seq2[domain.Page, error], error) {
	if doc.HasPages() {
		return domain.PageSeq(doc.Pages), nil
	}
	return j.extractors.Extract(j.ctx, doc)
}

func (j *ingestionJob) fallback(doc domain.Document, page, sequence int, err error) {
	j.summary.Fallbacks++

	msg := fmt.Sprintf("Embedding failed for %s page %d chunk %d, stored a zero vector: %v", doc.Name(), page, sequence, err)
	logger.Warn("%s", msg)

	j.emit(domain.Event{
		Type:     domain.EventWarning,
		Document: doc.Name(),
		Page:     page,
		Err:      err,
		Message:  msg,
	})
}

func (j *ingestionJob) skip(doc domain.Document, page int, err error) {
	j.summary.Skipped++

	msg := fmt.Sprintf("Skipped %s: %v", doc.Name(), err)
	if page > 0 {
		msg = fmt.Sprintf("Skipped %s page %d: %v", doc.Name(), page, err)
	}
	logger.Warn("%s", msg)

	j.emit(domain.Event{
		Type:     domain.EventSkip,
		Document: doc.Name(),
		Page:     page,
		Err:      err,
		Message:  msg,
	})
}
