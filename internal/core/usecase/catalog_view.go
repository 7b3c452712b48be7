package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
)

// CatalogView owns the catalog one user is looking at. Only the response to
// the most recently issued Load may replace the displayed page.
type CatalogView struct {
	catalog ports.DocumentCatalog

	mu      sync.Mutex
	issued  uint64
	current *domain.CatalogPage
	page    int
	search  string
}

func NewCatalogView(catalog ports.DocumentCatalog) *CatalogView {
	return &CatalogView{catalog: catalog, page: 1}
}

// Load fetches a page. A failed load leaves the displayed page untouched; a
// load overtaken by a newer one returns domain.ErrStaleResponse.
func (v *CatalogView) Load(ctx context.Context, page int, searchTerm string) (*domain.CatalogPage, error) {
	if page < 1 {
		page = 1
	}
	searchTerm = strings.TrimSpace(searchTerm)

	v.mu.Lock()
	v.issued++
	token := v.issued
	v.mu.Unlock()

	result, err := v.catalog.ListDocuments(ctx, page, searchTerm)

	v.mu.Lock()
	defer v.mu.Unlock()
	if token != v.issued {
		return nil, domain.ErrStaleResponse
	}
	if err != nil {
		return nil, err
	}
	v.current = result
	v.page = page
	v.search = searchTerm
	return result, nil
}

// Refresh reloads the page and search of the last successful Load.
func (v *CatalogView) Refresh(ctx context.Context) (*domain.CatalogPage, error) {
	page, search := v.Position()
	return v.Load(ctx, page, search)
}

// Delete asks confirmer first and, after the backend confirms the delete,
// reloads the current position instead of editing the displayed rows. A
// failed reload after a successful delete is reported as
// domain.ErrRefreshAfterDelete.
func (v *CatalogView) Delete(ctx context.Context, id string, confirmer ports.Confirmer) (*domain.CatalogPage, error) {
	id = strings.TrimSpace(id)
	if confirmer == nil {
		return nil, domain.WrapError(domain.ErrDeleteCancelled, "delete document", fmt.Errorf("no confirmation for %s", id))
	}
	ok, err := confirmer.Confirm(ctx, fmt.Sprintf("Delete document %s? This cannot be undone.", id))
	if err != nil {
		return nil, fmt.Errorf("confirm delete: %w", err)
	}
	if !ok {
		return nil, domain.WrapError(domain.ErrDeleteCancelled, "delete document", fmt.Errorf("%s was kept", id))
	}

	if err := v.catalog.DeleteDocument(ctx, id); err != nil {
		return nil, err
	}
	page, err := v.Refresh(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRefreshAfterDelete, "delete document", err)
	}
	return page, nil
}

// Current returns the displayed page, or nil before the first successful Load.
func (v *CatalogView) Current() *domain.CatalogPage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

func (v *CatalogView) Position() (int, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page, v.search
}
