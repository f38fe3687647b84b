package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// instructionHeader constrains the model to the supplied context.
const instructionHeader = `You are an AI assistant that answers questions based on the provided context.
Use only the information from the context to answer the query. If the answer is not in the context,
say that you don't have enough information to answer accurately. Cite the sources (document name and page)
where you found the information.`

// BuildContext concatenates results in ranked order, each annotated with
// its source and page, and returns the matching provenance list.
func BuildContext(results []domain.SearchResult) (string, []domain.Provenance) {
	var b strings.Builder
	sources := make([]domain.Provenance, 0, len(results))

	for i, r := range results {
		fmt.Fprintf(&b, "\n--- Excerpt %d from %s (Page %d) ---\n%s\n",
			i+1, r.Metadata.Source, r.Metadata.Page, r.Text)
		sources = append(sources, r.Metadata.Provenance())
	}
	return b.String(), sources
}

// BuildPrompt composes the generation prompt.
func BuildPrompt(query, context string) string {
	var b strings.Builder
	b.WriteString("System: ")
	b.WriteString(instructionHeader)
	b.WriteString("\n\nContext:\n")
	b.WriteString(context)
	b.WriteString("\nUser Query: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
