// Package chunker splits page text into overlapping, bounded chunks whose
// cut points prefer sentence boundaries.
package chunker

import (
	"fmt"
	"iter"
	"strconv"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// DefaultLookback is how far back from a raw cut point a sentence
// boundary is searched for.
const DefaultLookback = 100

// chunkNamespace seeds deterministic chunk ids.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ragdesk/chunk"))

// Segment is one piece of split text. Start and End are character
// offsets into the input.
type Segment struct {
	Start int
	End   int
	Text  string
}

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker splits document pages into chunks.
type Chunker struct {
	size     int
	overlap  int
	lookback int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithLookback sets the sentence boundary search window in characters.
func WithLookback(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.lookback = n
		}
	}
}

// New creates a chunker. It fails with domain.ErrInvalidChunking unless
// 0 <= overlap < size.
func New(size, overlap int, opts ...Option) (*Chunker, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}

	c := &Chunker{
		size:     size,
		overlap:  overlap,
		lookback: DefaultLookback,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Factory returns a driven.ChunkerFactory applying opts to every chunker.
func Factory(opts ...Option) driven.ChunkerFactory {
	return func(size, overlap int) (driven.Chunker, error) {
		return New(size, overlap, opts...)
	}
}

// Size returns the maximum chunk length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the target overlap between consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunks yields the chunks of one page with deterministic ids.
func (c *Chunker) Chunks(doc domain.Document, page domain.Page) iter.Seq[domain.Chunk] {
	source := doc.Name()
	return func(yield func(domain.Chunk) bool) {
		seq := 0
		for seg := range segments([]rune(page.Text), c.size, c.overlap, c.lookback) {
			chunk := domain.Chunk{
				ID:         ChunkID(doc.ID, page.Number, seg.Start),
				DocumentID: doc.ID,
				Source:     source,
				Page:       page.Number,
				Sequence:   seq,
				Start:      seg.Start,
				End:        seg.End,
				Text:       seg.Text,
			}
			if !yield(chunk) {
				return
			}
			seq++
		}
	}
}

// ChunkID derives the id of the chunk starting at offset on a page.
func ChunkID(documentID string, page, offset int) string {
	key := documentID + "\x00" + strconv.Itoa(page) + "\x00" + strconv.Itoa(offset)
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}

// Split lazily splits text using the default lookback window.
func Split(text string, size, overlap int) (iter.Seq[Segment], error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return segments([]rune(text), size, overlap, DefaultLookback), nil
}

func validate(size, overlap int) error {
	if size <= 0 || overlap < 0 || overlap >= size {
		return fmt.Errorf("%w (size=%d, overlap=%d)", domain.ErrInvalidChunking, size, overlap)
	}
	return nil
}

// segments walks text in windows of at most size characters. Each window
// after the first starts overlap characters before the previous cut. Whitespace
// only windows are not yielded.
func segments(text []rune, size, overlap, lookback int) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		n := len(text)
		start := 0
		for start < n {
			end := min(start+size, n)
			if end < n {
				end = snap(text, start, end, lookback)
			}

			if !isBlank(text[start:end]) {
				if !yield(Segment{Start: start, End: end, Text: string(text[start:end])}) {
					return
				}
			}
			if end >= n {
				return
			}

			next := end - overlap
			if next <= start {
				next = end
			}
			start = next
		}
	}
}

// snap moves a cut point back to just after the nearest sentence
// terminator or newline within the lookback window. The cut never moves to
// or before start.
func snap(text []rune, start, end, lookback int) int {
	window := min(lookback, end-start-1)
	for i := 0; i <= window; i++ {
		cut := end - i
		if cut <= start {
			break
		}
		if isBoundary(text, cut) {
			return cut
		}
	}
	return end
}

// isBoundary reports whether a cut before text[cut] falls at the end of a
// sentence or line.
func isBoundary(text []rune, cut int) bool {
	prev := text[cut-1]
	if prev == '\n' {
		return true
	}
	switch prev {
	case '.', '!', '?':
		return unicode.IsSpace(text[cut])
	}
	return false
}

func isBlank(rs []rune) bool {
	for _, r := range rs {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
