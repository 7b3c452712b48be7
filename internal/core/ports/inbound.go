package ports

import (
	"context"

	"github.com/kirillkom/ragdesk/internal/core/domain"
)

// DocumentCatalog is the inbound contract for listing and managing documents.
type DocumentCatalog interface {
	ListDocuments(ctx context.Context, page int, searchTerm string) (*domain.CatalogPage, error)
	FetchDocumentDetail(ctx context.Context, id string) (*domain.DocumentRecord, error)
	DeleteDocument(ctx context.Context, id string) error
}

// DocumentUploader is the inbound contract for adding documents.
type DocumentUploader interface {
	UploadFile(ctx context.Context, upload domain.FileUpload) error
	UploadText(ctx context.Context, upload domain.TextUpload) error
}

// ChatOrchestrator produces render-ready chat turns. A false second return
// value means the input was empty and nothing was sent.
type ChatOrchestrator interface {
	SendTurn(ctx context.Context, userText string, useRetrieval bool) (domain.ChatTurn, bool)
	Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error)
	Stats(ctx context.Context) (*domain.KnowledgeStats, error)
}
