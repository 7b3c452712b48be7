package usecase

import (
	"fmt"
	"strings"
)

// ComposePrompt builds the single instruction sent to the plain chat
// endpoint. Passages are embedded verbatim in retrieval order.
func ComposePrompt(question string, passages []string) string {
	question = strings.TrimSpace(question)

	usable := make([]string, 0, len(passages))
	for _, passage := range passages {
		if strings.TrimSpace(passage) != "" {
			usable = append(usable, passage)
		}
	}
	if len(usable) == 0 {
		return fmt.Sprintf("Answer the following question directly and concisely.\n\nQuestion:\n%s\n", question)
	}

	var b strings.Builder
	b.WriteString("Answer the question using only the knowledge base excerpts below.\n")
	b.WriteString("If the excerpts do not contain the answer, say so directly.\n\n")
	b.WriteString("Excerpts:\n")
	for i, passage := range usable {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, passage)
	}
	b.WriteString("Question:\n")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}
