package httpadapter

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/kirillkom/ragdesk/internal/config"
	"github.com/kirillkom/ragdesk/internal/core/domain"
)

type catalogFake struct {
	mu sync.Mutex

	pages     map[int]*domain.CatalogPage
	listErr   error
	detail    *domain.DocumentRecord
	detailErr error
	deleteErr error
	pingErr   error
	uploadErr error

	listCalls   []int
	deleted     []string
	fileUploads []domain.FileUpload
	fileBodies  []string
	textUploads []domain.TextUpload
}

func (f *catalogFake) ListDocuments(_ context.Context, page int, searchTerm string) (*domain.CatalogPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, page)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if p, ok := f.pages[page]; ok {
		cp := *p
		cp.SearchTerm = searchTerm
		return &cp, nil
	}
	return &domain.CatalogPage{Page: page, TotalPages: 1, SearchTerm: searchTerm, Source: domain.CatalogSourcePaged}, nil
}

func (f *catalogFake) FetchDocumentDetail(context.Context, string) (*domain.DocumentRecord, error) {
	return f.detail, f.detailErr
}

func (f *catalogFake) DeleteDocument(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *catalogFake) UploadFile(_ context.Context, upload domain.FileUpload) error {
	body, _ := io.ReadAll(upload.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileUploads = append(f.fileUploads, upload)
	f.fileBodies = append(f.fileBodies, string(body))
	return f.uploadErr
}

func (f *catalogFake) UploadText(_ context.Context, upload domain.TextUpload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textUploads = append(f.textUploads, upload)
	return f.uploadErr
}

func (f *catalogFake) Ping(context.Context) error {
	return f.pingErr
}

type chatFake struct {
	mu        sync.Mutex
	reply     domain.ChatTurn
	retrieval *domain.RetrievalResult
	stats     *domain.KnowledgeStats
	statsErr  error
	sent      []bool
}

func (f *chatFake) Stats(context.Context) (*domain.KnowledgeStats, error) {
	if f.stats == nil && f.statsErr == nil {
		return &domain.KnowledgeStats{}, nil
	}
	return f.stats, f.statsErr
}

func (f *chatFake) SendTurn(_ context.Context, userText string, useRetrieval bool) (domain.ChatTurn, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, useRetrieval)
	return f.reply, true
}

func (f *chatFake) Retrieve(context.Context, string) (*domain.RetrievalResult, error) {
	return f.retrieval, nil
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.WebRateLimitRPS = 0
	cfg.WebMaxInFlight = 0
	return cfg
}

func newTestHandler(cfg config.Config, catalog *catalogFake, chat *chatFake) http.Handler {
	if catalog == nil {
		catalog = &catalogFake{}
	}
	if chat == nil {
		chat = &chatFake{}
	}
	return NewRouter(cfg, catalog, chat, nil, nil).Handler()
}
