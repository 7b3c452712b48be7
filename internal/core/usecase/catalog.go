package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
)

// CatalogUseCase lists, views, deletes and uploads documents. Listing tries
// the paginated endpoint first and falls back to the id list plus one detail
// fetch per id.
type CatalogUseCase struct {
	transport ports.Transport
	extractor ports.TextExtractor
	recorder  ports.UsageRecorder
	pageSize  int
}

func NewCatalogUseCase(
	transport ports.Transport,
	extractor ports.TextExtractor,
	recorder ports.UsageRecorder,
	pageSize int,
) *CatalogUseCase {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &CatalogUseCase{
		transport: transport,
		extractor: extractor,
		recorder:  recorder,
		pageSize:  pageSize,
	}
}

func (uc *CatalogUseCase) PageSize() int {
	return uc.pageSize
}

func (uc *CatalogUseCase) ListDocuments(ctx context.Context, page int, searchTerm string) (*domain.CatalogPage, error) {
	if page < 1 {
		page = 1
	}
	searchTerm = strings.TrimSpace(searchTerm)

	result, pagedErr := uc.listPaged(ctx, page, searchTerm)
	if pagedErr == nil {
		uc.recorder.RecordCatalogListing(string(domain.CatalogSourcePaged), 0)
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slog.Info("catalog_paged_fallback", "page", page, "search", searchTerm, "error", pagedErr)

	result, degraded, legacyErr := uc.listLegacy(ctx, searchTerm)
	if legacyErr != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrCatalogUnavailable, "list documents", legacyErr)
	}
	uc.recorder.RecordCatalogListing(string(domain.CatalogSourceLegacy), degraded)
	return result, nil
}

type pagedListPayload struct {
	statusPayload
	Documents  []documentPayload `json:"documents"`
	Pagination *struct {
		Page       int  `json:"page"`
		TotalPages int  `json:"total_pages"`
		TotalDocs  *int `json:"total_docs"`
		TotalCount *int `json:"total_count"`
	} `json:"pagination"`
}

func (uc *CatalogUseCase) listPaged(ctx context.Context, page int, searchTerm string) (*domain.CatalogPage, error) {
	const operation = "list documents paged"

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(uc.pageSize))
	if searchTerm != "" {
		query.Set("search", searchTerm)
	}

	raw, err := uc.transport.Do(ctx, ports.Call{
		Service:   ports.ServiceRAG,
		Method:    http.MethodGet,
		Path:      pathPagedDocuments,
		Query:     query,
		Operation: operation,
	})
	if err != nil {
		return nil, err
	}

	var payload pagedListPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, malformed(operation, err)
	}
	if !payload.ok() {
		return nil, domain.BackendError(operation, payload.failureDetail())
	}

	items := make([]domain.DocumentRecord, 0, len(payload.Documents))
	for _, doc := range payload.Documents {
		if len(items) == uc.pageSize {
			break
		}
		items = append(items, doc.record().Summary())
	}

	result := &domain.CatalogPage{
		Items:      items,
		Page:       page,
		TotalPages: 1,
		TotalCount: len(items),
		SearchTerm: searchTerm,
		Source:     domain.CatalogSourcePaged,
	}
	if p := payload.Pagination; p != nil {
		if p.Page > 0 {
			result.Page = p.Page
		}
		if p.TotalPages > 0 {
			result.TotalPages = p.TotalPages
		}
		switch {
		case p.TotalDocs != nil && *p.TotalDocs >= 0:
			result.TotalCount = *p.TotalDocs
		case p.TotalCount != nil && *p.TotalCount >= 0:
			result.TotalCount = *p.TotalCount
		}
	}
	if result.TotalCount > 0 && result.Page > result.TotalPages {
		result.Page = result.TotalPages
	}
	return result, nil
}

type idListPayload struct {
	statusPayload
	DocIDs []string `json:"doc_ids"`
}

func (uc *CatalogUseCase) listLegacy(ctx context.Context, searchTerm string) (*domain.CatalogPage, int, error) {
	ids, err := uc.documentIDs(ctx)
	if err != nil {
		return nil, 0, err
	}

	needle := strings.ToLower(searchTerm)
	items := make([]domain.DocumentRecord, 0, len(ids))
	degraded := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		doc, err := uc.FetchDocumentDetail(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, 0, ctxErr
			}
			slog.Debug("catalog_detail_degraded", "doc_id", id, "error", err)
			degraded++
			items = append(items, domain.DocumentRecord{ID: id})
			continue
		}
		if needle != "" && !matchesSearch(doc, needle) {
			continue
		}
		items = append(items, doc.Summary())
	}

	return &domain.CatalogPage{
		Items:      items,
		Page:       1,
		TotalPages: 1,
		TotalCount: len(items),
		SearchTerm: searchTerm,
		Source:     domain.CatalogSourceLegacy,
	}, degraded, nil
}

func (uc *CatalogUseCase) documentIDs(ctx context.Context) ([]string, error) {
	const operation = "list document ids"

	raw, err := uc.transport.Do(ctx, ports.Call{
		Service:   ports.ServiceRAG,
		Method:    http.MethodGet,
		Path:      pathDocumentIDs,
		Operation: operation,
	})
	if err != nil {
		return nil, err
	}
	var payload idListPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, malformed(operation, err)
	}
	if !payload.ok() {
		return nil, domain.BackendError(operation, payload.failureDetail())
	}
	return payload.DocIDs, nil
}

// matchesSearch expects needle already lower-cased.
func matchesSearch(doc *domain.DocumentRecord, needle string) bool {
	return strings.Contains(strings.ToLower(doc.Title), needle) ||
		strings.Contains(strings.ToLower(doc.Content), needle)
}

type detailPayload struct {
	statusPayload
	Document *documentPayload `json:"document"`
}

func (uc *CatalogUseCase) FetchDocumentDetail(ctx context.Context, id string) (*domain.DocumentRecord, error) {
	const operation = "fetch document"

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, operation, errors.New("document id is required"))
	}

	raw, err := uc.transport.Do(ctx, ports.Call{
		Service:   ports.ServiceRAG,
		Method:    http.MethodGet,
		Path:      pathDocumentContent,
		Query:     url.Values{"doc_id": {id}},
		Operation: operation,
		Breaker:   detailBreaker,
	})
	if err != nil {
		var transportErr *domain.TransportError
		if errors.As(err, &transportErr) && transportErr.StatusCode == http.StatusNotFound {
			return nil, &domain.TransportError{
				Kind:       domain.ErrNotFound,
				Operation:  operation,
				StatusCode: http.StatusNotFound,
				Detail:     transportErr.Detail,
				Err:        err,
			}
		}
		return nil, err
	}

	var payload detailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, malformed(operation, err)
	}
	if !payload.ok() || payload.Document == nil {
		detail := payload.failureDetail()
		if detail == "" {
			detail = fmt.Sprintf("document %s was not found", id)
		}
		return nil, &domain.TransportError{
			Kind:      domain.ErrNotFound,
			Operation: operation,
			Detail:    detail,
		}
	}

	doc := payload.Document.record()
	doc.ID = id
	return &doc, nil
}

type deleteRequest struct {
	DocID string `json:"doc_id"`
}

// DeleteDocument only issues the request. Confirmation and the follow-up
// refresh belong to CatalogView.
func (uc *CatalogUseCase) DeleteDocument(ctx context.Context, id string) error {
	const operation = "delete document"

	id = strings.TrimSpace(id)
	if id == "" {
		return domain.WrapError(domain.ErrInvalidInput, operation, errors.New("document id is required"))
	}

	raw, err := uc.transport.Do(ctx, ports.Call{
		Service:   ports.ServiceRAG,
		Method:    http.MethodPost,
		Path:      pathDocumentDelete,
		JSON:      deleteRequest{DocID: id},
		Operation: operation,
	})
	if err != nil {
		return err
	}
	var payload statusPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return malformed(operation, err)
	}
	if !payload.ok() {
		return domain.BackendError(operation, payload.failureDetail())
	}
	slog.Info("document_deleted", "doc_id", id)
	return nil
}

// Ping checks that the RAG service answers its id listing.
func (uc *CatalogUseCase) Ping(ctx context.Context) error {
	if _, err := uc.documentIDs(ctx); err != nil {
		return fmt.Errorf("ping rag service: %w", err)
	}
	return nil
}
