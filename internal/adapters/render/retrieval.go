package render

import (
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kirillkom/ragdesk/internal/core/domain"
)

func RetrievalList(result *domain.RetrievalResult) *html.Node {
	if result.IsEmpty() {
		return wrap(atom.P, "No matching passages in the knowledge base.", class("placeholder"))
	}
	list := element(atom.Ol, class("retrieval-results"))
	for i, passage := range result.Passages {
		list.AppendChild(appendChildren(element(atom.Li, class("preview-item")),
			wrap(atom.Div, passage, class("content")),
			wrap(atom.Div, fmt.Sprintf("Passage %d", i+1), class("meta")),
		))
	}
	return list
}

// KnowledgeCount shows the size of the retrieval index, or that it is unknown
// when stats is nil.
func KnowledgeCount(stats *domain.KnowledgeStats) *html.Node {
	if stats == nil {
		return wrap(atom.P, "Knowledge base size unavailable.", class("knowledge-count placeholder"))
	}
	return wrap(atom.P, fmt.Sprintf("Knowledge base entries: %d", stats.Count), class("knowledge-count"))
}
