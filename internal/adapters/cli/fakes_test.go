package cli

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/kirillkom/ragdesk/internal/core/domain"
)

type fakeCatalog struct {
	docs      []domain.DocumentRecord
	listErr   error
	pingErr   error
	deleted   []string
	listCalls []string
	texts     []domain.TextUpload
	files     []string
}

func (f *fakeCatalog) ListDocuments(_ context.Context, page int, search string) (*domain.CatalogPage, error) {
	f.listCalls = append(f.listCalls, search)
	if f.listErr != nil {
		return nil, f.listErr
	}
	items := make([]domain.DocumentRecord, 0, len(f.docs))
	for _, doc := range f.docs {
		if search == "" || strings.Contains(strings.ToLower(doc.Title), strings.ToLower(search)) {
			items = append(items, doc.Summary())
		}
	}
	return &domain.CatalogPage{
		Items:      items,
		Page:       page,
		TotalPages: 1,
		TotalCount: len(items),
		SearchTerm: search,
		Source:     domain.CatalogSourcePaged,
	}, nil
}

func (f *fakeCatalog) FetchDocumentDetail(_ context.Context, id string) (*domain.DocumentRecord, error) {
	for _, doc := range f.docs {
		if doc.ID == id {
			doc := doc
			return &doc, nil
		}
	}
	return nil, &domain.TransportError{Kind: domain.ErrNotFound, Detail: "document " + id + " was not found"}
}

func (f *fakeCatalog) DeleteDocument(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	kept := f.docs[:0]
	for _, doc := range f.docs {
		if doc.ID != id {
			kept = append(kept, doc)
		}
	}
	f.docs = kept
	return nil
}

func (f *fakeCatalog) UploadFile(_ context.Context, upload domain.FileUpload) error {
	if _, err := io.Copy(io.Discard, upload.Body); err != nil {
		return err
	}
	f.files = append(f.files, upload.Filename)
	return nil
}

func (f *fakeCatalog) UploadText(_ context.Context, upload domain.TextUpload) error {
	f.texts = append(f.texts, upload)
	return nil
}

func (f *fakeCatalog) Ping(context.Context) error {
	return f.pingErr
}

type fakeChat struct {
	questions []string
	retrieval []bool
	passages  []string
	count     int
	statsErr  error
}

func (f *fakeChat) Stats(context.Context) (*domain.KnowledgeStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &domain.KnowledgeStats{Count: f.count}, nil
}

func (f *fakeChat) SendTurn(_ context.Context, text string, useRetrieval bool) (domain.ChatTurn, bool) {
	if strings.TrimSpace(text) == "" {
		return domain.ChatTurn{}, false
	}
	f.questions = append(f.questions, text)
	f.retrieval = append(f.retrieval, useRetrieval)
	turn := domain.ChatTurn{Role: domain.RoleAssistant, Text: "answer to " + text}
	if useRetrieval {
		turn.Citations = []domain.Citation{{Snippet: "from the handbook", SourceIndex: 0}}
	}
	return turn, true
}

func (f *fakeChat) Retrieve(_ context.Context, query string) (*domain.RetrievalResult, error) {
	return &domain.RetrievalResult{Query: query, Passages: f.passages}, nil
}

func sampleCatalog() *fakeCatalog {
	return &fakeCatalog{docs: []domain.DocumentRecord{
		{ID: "doc-1", Title: "Onboarding", Author: "Ann", Tags: []string{"hr"}, Content: "Welcome aboard.", Resolved: true},
		{ID: "doc-2", Title: "Expenses", Content: "Keep receipts.", Resolved: true},
	}}
}

// runCommand executes the root command with fakes and returns stdout.
func runCommand(catalog *fakeCatalog, chat *fakeChat, stdin string, args ...string) (string, error) {
	load := func(context.Context, *RootOptions) (*Services, error) {
		return &Services{Catalog: catalog, Chat: chat, PageSize: 10}, nil
	}
	cmd := NewRootCommand(load, "1.2.3")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
