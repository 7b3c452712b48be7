package mcp

import (
	"context"

	"github.com/kirillkom/ragdesk/internal/core/domain"
)

type mockCatalog struct {
	page      *domain.CatalogPage
	listErr   error
	detail    *domain.DocumentRecord
	detailErr error

	gotPage   int
	gotSearch string
}

func (m *mockCatalog) ListDocuments(_ context.Context, page int, searchTerm string) (*domain.CatalogPage, error) {
	m.gotPage = page
	m.gotSearch = searchTerm
	return m.page, m.listErr
}

func (m *mockCatalog) FetchDocumentDetail(context.Context, string) (*domain.DocumentRecord, error) {
	return m.detail, m.detailErr
}

func (m *mockCatalog) DeleteDocument(context.Context, string) error {
	return nil
}

type mockChat struct {
	turn      domain.ChatTurn
	sendOK    bool
	retrieval *domain.RetrievalResult
	retErr    error
	stats     *domain.KnowledgeStats
	statsErr  error

	gotRetrieval bool
}

func (m *mockChat) SendTurn(_ context.Context, _ string, useRetrieval bool) (domain.ChatTurn, bool) {
	m.gotRetrieval = useRetrieval
	return m.turn, m.sendOK
}

func (m *mockChat) Retrieve(context.Context, string) (*domain.RetrievalResult, error) {
	return m.retrieval, m.retErr
}

func (m *mockChat) Stats(context.Context) (*domain.KnowledgeStats, error) {
	return m.stats, m.statsErr
}
