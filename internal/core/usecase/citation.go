package usecase

import "github.com/kirillkom/ragdesk/internal/core/domain"

const (
	citationSnippetLimit = 150
	truncationMarker     = "..."
)

// BuildCitations keeps context order; SourceIndex is the context ordinal.
func BuildCitations(contexts []string) []domain.Citation {
	if len(contexts) == 0 {
		return nil
	}
	out := make([]domain.Citation, 0, len(contexts))
	for i, text := range contexts {
		snippet, truncated := truncateSnippet(text, citationSnippetLimit)
		out = append(out, domain.Citation{
			Snippet:     snippet,
			SourceIndex: i,
			Truncated:   truncated,
		})
	}
	return out
}

// truncateSnippet counts runes so multi-byte text is never cut mid-character.
func truncateSnippet(text string, limit int) (string, bool) {
	runes := []rune(text)
	if len(runes) <= limit {
		return text, false
	}
	return string(runes[:limit]) + truncationMarker, true
}
