package domain

import "fmt"

// NoRelevantInformation is the answer text when retrieval finds nothing.
const NoRelevantInformation = "No relevant information found for your query."

// Provenance is the (source document, page) citation of a retrieved chunk.
type Provenance struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

// Answer is the result of a query job.
type Answer struct {
	Query string `json:"query"`
	Model string `json:"model"`
	Text  string `json:"text"`

	// Sources lists the provenance of the chunks used, in ranked order.
	Sources []Provenance `json:"sources"`

	// Context is the assembled context passed to the model.
	// Empty when nothing relevant was retrieved.
	Context string `json:"context,omitempty"`

	// NoRelevantInfo is set when retrieval returned no chunks.
	NoRelevantInfo bool `json:"no_relevant_info,omitempty"`
}

// SourceLines renders the provenance as numbered citation lines.
func (a Answer) SourceLines() []string {
	lines := make([]string, len(a.Sources))
	for i, s := range a.Sources {
		lines[i] = fmt.Sprintf("Source %d: %s, Page: %d", i+1, s.Source, s.Page)
	}
	return lines
}

// DocumentCount is the number of chunks indexed for one document.
type DocumentCount struct {
	Document string `json:"document"`
	Chunks   int    `json:"chunks"`
}

// IngestionSummary is reported when an ingestion job reaches a terminal state.
type IngestionSummary struct {
	Collection  string          `json:"collection"`
	TotalChunks int             `json:"total_chunks"`
	PagesSeen   int             `json:"pages_seen"`
	Skipped     int             `json:"skipped"`
	Fallbacks   int             `json:"fallbacks"`
	Documents   []DocumentCount `json:"documents"`
}

// ChunksFor returns the chunk count recorded for a document.
func (s IngestionSummary) ChunksFor(document string) int {
	for _, d := range s.Documents {
		if d.Document == document {
			return d.Chunks
		}
	}
	return 0
}
