package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Citation struct {
	Snippet     string `json:"snippet"`
	SourceIndex int    `json:"source_index"`
	Truncated   bool   `json:"truncated,omitempty"`
}

type ChatTurn struct {
	Role      Role       `json:"role"`
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`

	// Failed marks an assistant turn produced from a backend failure.
	Failed bool `json:"failed,omitempty"`
}

// KnowledgeStats is the size of the retrieval index.
type KnowledgeStats struct {
	Count int `json:"count"`
}

// RetrievalResult lives only for the duration of one chat turn.
type RetrievalResult struct {
	Query    string   `json:"query"`
	Passages []string `json:"passages"`
}

func (r *RetrievalResult) IsEmpty() bool {
	return r == nil || len(r.Passages) == 0
}
