package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
)

type ChatMode string

const (
	// ChatModeCombined lets the RAG service retrieve and generate in one call.
	ChatModeCombined ChatMode = "combined"
	// ChatModeComposed builds the prompt here and calls the plain chat endpoint.
	ChatModeComposed ChatMode = "composed"
)

const apologyPrefix = "Sorry, I could not answer that right now: "

// ChatUseCase turns user text into one render-ready assistant turn. It never
// returns an error for a backend failure; the failure becomes an apology turn.
type ChatUseCase struct {
	transport    ports.Transport
	recorder     ports.UsageRecorder
	combinedPath string
}

// NewChatUseCase fixes the mode for the lifetime of the use case: combined
// when combinedPath is set, composed otherwise.
func NewChatUseCase(transport ports.Transport, recorder ports.UsageRecorder, combinedPath string) *ChatUseCase {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &ChatUseCase{
		transport:    transport,
		recorder:     recorder,
		combinedPath: strings.TrimSpace(combinedPath),
	}
}

func (uc *ChatUseCase) Mode() ChatMode {
	if uc.combinedPath != "" {
		return ChatModeCombined
	}
	return ChatModeComposed
}

func (uc *ChatUseCase) SendTurn(ctx context.Context, userText string, useRetrieval bool) (domain.ChatTurn, bool) {
	question := strings.TrimSpace(userText)
	if question == "" {
		return domain.ChatTurn{}, false
	}

	var passages []string
	if useRetrieval {
		result, err := uc.Retrieve(ctx, question)
		if err != nil {
			slog.Warn("retrieval_degraded", "error", err)
			uc.recorder.RecordRetrievalDegraded()
			useRetrieval = false
		} else {
			passages = result.Passages
		}
	}

	mode := uc.Mode()
	var turn domain.ChatTurn
	if mode == ChatModeCombined {
		turn = uc.askCombined(ctx, question, useRetrieval)
	} else {
		turn = uc.askComposed(ctx, question, passages)
	}
	uc.recorder.RecordChatTurn(string(mode), turn.Failed)
	return turn, true
}

type combinedRequest struct {
	Query  string `json:"query"`
	UseRAG bool   `json:"use_rag"`
}

type combinedPayload struct {
	statusPayload
	Answer   *string       `json:"answer"`
	Contexts []passageItem `json:"contexts"`
}

func (uc *ChatUseCase) askCombined(ctx context.Context, question string, useRetrieval bool) domain.ChatTurn {
	const operation = "combined chat"

	raw, err := uc.transport.Do(ctx, ports.Call{
		Service:   ports.ServiceRAG,
		Method:    http.MethodPost,
		Path:      uc.combinedPath,
		JSON:      combinedRequest{Query: question, UseRAG: useRetrieval},
		Operation: operation,
	})
	if err != nil {
		return apologyTurn(err)
	}

	var payload combinedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apologyTurn(malformed(operation, err))
	}
	if !payload.ok() {
		return apologyTurn(domain.BackendError(operation, payload.failureDetail()))
	}
	if payload.Answer == nil || strings.TrimSpace(*payload.Answer) == "" {
		return apologyTurn(domain.BackendError(operation, "the service returned no answer"))
	}

	contexts := make([]string, 0, len(payload.Contexts))
	for _, item := range payload.Contexts {
		contexts = append(contexts, string(item))
	}
	return domain.ChatTurn{
		Role:      domain.RoleAssistant,
		Text:      *payload.Answer,
		Citations: BuildCitations(contexts),
	}
}

type plainChatRequest struct {
	Message string `json:"message"`
}

type plainChatPayload struct {
	statusPayload
	Response *string `json:"response"`
}

func (uc *ChatUseCase) askComposed(ctx context.Context, question string, passages []string) domain.ChatTurn {
	const operation = "plain chat"

	raw, err := uc.transport.Do(ctx, ports.Call{
		Service:   ports.ServiceAuth,
		Method:    http.MethodPost,
		Path:      pathPlainChat,
		JSON:      plainChatRequest{Message: ComposePrompt(question, passages)},
		Operation: operation,
	})
	if err != nil {
		return apologyTurn(err)
	}

	var payload plainChatPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apologyTurn(malformed(operation, err))
	}
	if payload.Status != "" && !payload.ok() {
		return apologyTurn(domain.BackendError(operation, payload.failureDetail()))
	}
	if payload.Response == nil || strings.TrimSpace(*payload.Response) == "" {
		return apologyTurn(domain.BackendError(operation, "the service returned no answer"))
	}
	return domain.ChatTurn{
		Role: domain.RoleAssistant,
		Text: *payload.Response,
	}
}

type retrievalPayload struct {
	Status  string          `json:"status"`
	Detail  json.RawMessage `json:"detail"`
	Results []passageItem   `json:"results"`
}

// Retrieve asks the knowledge base for passages relevant to query.
func (uc *ChatUseCase) Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error) {
	const operation = "retrieve passages"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, operation, errors.New("query is required"))
	}

	raw, err := uc.transport.Do(ctx, ports.Call{
		Service:   ports.ServiceAuth,
		Method:    http.MethodGet,
		Path:      pathRetrieve,
		Query:     url.Values{"query": {query}},
		Operation: operation,
	})
	if err != nil {
		return nil, err
	}

	var payload retrievalPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, malformed(operation, err)
	}
	if payload.Status != "" && payload.Status != statusSuccess {
		status := statusPayload{Status: payload.Status, Detail: payload.Detail}
		return nil, domain.BackendError(operation, status.failureDetail())
	}

	passages := make([]string, 0, len(payload.Results))
	for _, item := range payload.Results {
		if text := string(item); strings.TrimSpace(text) != "" {
			passages = append(passages, text)
		}
	}
	return &domain.RetrievalResult{Query: query, Passages: passages}, nil
}

type statsPayload struct {
	statusPayload
	Count *int `json:"count"`
}

// Stats reports how many entries the retrieval index holds.
func (uc *ChatUseCase) Stats(ctx context.Context) (*domain.KnowledgeStats, error) {
	const operation = "knowledge base stats"

	raw, err := uc.transport.Do(ctx, ports.Call{
		Service:   ports.ServiceAuth,
		Method:    http.MethodGet,
		Path:      pathStats,
		Operation: operation,
	})
	if err != nil {
		return nil, err
	}
	var payload statsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, malformed(operation, err)
	}
	if payload.Status != "" && !payload.ok() {
		return nil, domain.BackendError(operation, payload.failureDetail())
	}
	if payload.Count == nil {
		return nil, malformed(operation, errors.New("count is missing"))
	}
	return &domain.KnowledgeStats{Count: *payload.Count}, nil
}

// passageItem accepts a bare string or an object carrying the passage under
// text, document or content.
type passageItem string

func (p *passageItem) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*p = passageItem(text)
		return nil
	}
	var obj struct {
		Text     *string `json:"text"`
		Document *string `json:"document"`
		Content  *string `json:"content"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	for _, candidate := range []*string{obj.Text, obj.Document, obj.Content} {
		if candidate != nil {
			*p = passageItem(*candidate)
			return nil
		}
	}
	*p = ""
	return nil
}

func apologyTurn(err error) domain.ChatTurn {
	slog.Warn("chat_turn_failed", "error", err)
	detail := domain.Detail(err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		detail = "the request was cancelled"
	}
	return domain.ChatTurn{
		Role:   domain.RoleAssistant,
		Text:   apologyPrefix + detail,
		Failed: true,
	}
}
