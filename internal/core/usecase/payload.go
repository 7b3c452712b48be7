package usecase

import (
	"encoding/json"
	"strings"

	"github.com/kirillkom/ragdesk/internal/core/domain"
)

// documentPayload is a document as the RAG service serializes it.
type documentPayload struct {
	ID      string  `json:"doc_id"`
	Title   string  `json:"title"`
	Author  string  `json:"author"`
	Tags    tagList `json:"tags"`
	Content string  `json:"content"`
}

func (p documentPayload) record() domain.DocumentRecord {
	return domain.DocumentRecord{
		ID:       strings.TrimSpace(p.ID),
		Title:    strings.TrimSpace(p.Title),
		Author:   strings.TrimSpace(p.Author),
		Tags:     []string(p.Tags),
		Content:  p.Content,
		Resolved: true,
	}
}

// tagList accepts a JSON array or the comma-joined string the backend stores.
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = cleanTags(list)
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*t = ParseTags(joined)
	return nil
}

// ParseTags splits comma-separated user input and drops blank entries.
func ParseTags(input string) []string {
	return cleanTags(strings.Split(input, ","))
}

func cleanTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

type statusPayload struct {
	Status  string          `json:"status"`
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

func (p statusPayload) ok() bool {
	return p.Status == statusSuccess
}

// failureDetail prefers the backend's detail field and falls back to message.
func (p statusPayload) failureDetail() string {
	if len(p.Detail) > 0 {
		wrapped, err := json.Marshal(map[string]json.RawMessage{"detail": p.Detail})
		if err == nil {
			if detail := domain.DetailFromBody(wrapped); detail != "" {
				return detail
			}
		}
	}
	return strings.TrimSpace(p.Message)
}

func malformed(operation string, err error) error {
	return &domain.TransportError{
		Kind:      domain.ErrMalformedResponse,
		Operation: operation,
		Err:       err,
	}
}

type noopRecorder struct{}

func (noopRecorder) RecordCatalogListing(string, int) {}
func (noopRecorder) RecordChatTurn(string, bool)      {}
func (noopRecorder) RecordRetrievalDegraded()         {}
