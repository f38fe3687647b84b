package domain

// Chunk is a bounded text fragment with enough metadata to be retrieved
// and attributed independently.
type Chunk struct {
	// ID is derived from (DocumentID, Page, Start) so re-ingesting the
	// same document yields the same ids.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Source is the citation name of the parent document.
	Source string

	// Page is the 1-based page number.
	Page int

	// Sequence is the ordinal of the chunk within its page.
	Sequence int

	// Start and End are character offsets within the page text.
	Start int
	End   int

	// Text is the chunk content.
	Text string
}

// Metadata returns the index metadata carried alongside the chunk.
func (c Chunk) Metadata() ChunkMetadata {
	return ChunkMetadata{
		Source:     c.Source,
		DocumentID: c.DocumentID,
		Page:       c.Page,
		Sequence:   c.Sequence,
		Start:      c.Start,
		End:        c.End,
	}
}

// ChunkMetadata is stored with every index entry.
type ChunkMetadata struct {
	Source     string `json:"source"`
	DocumentID string `json:"document_id,omitempty"`
	Page       int    `json:"page"`
	Sequence   int    `json:"sequence"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// Provenance returns the (source, page) citation for the metadata.
func (m ChunkMetadata) Provenance() Provenance {
	return Provenance{Source: m.Source, Page: m.Page}
}
