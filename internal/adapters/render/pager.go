package render

import (
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kirillkom/ragdesk/internal/core/domain"
)

// Pager is the navigation state derived from a catalog page.
type Pager struct {
	Page       int
	TotalPages int
	TotalCount int
	Shown      int
	SearchTerm string

	PreviousEnabled bool
	NextEnabled     bool
	Info            string
}

func NewPager(page *domain.CatalogPage, pageSize int) Pager {
	if page == nil {
		return Pager{Page: 1, TotalPages: 1, Info: "No documents"}
	}
	if pageSize <= 0 {
		pageSize = len(page.Items)
	}

	p := Pager{
		Page:            page.Page,
		TotalPages:      page.TotalPages,
		TotalCount:      page.TotalCount,
		Shown:           len(page.Items),
		SearchTerm:      page.SearchTerm,
		PreviousEnabled: page.HasPrevious(),
		NextEnabled:     page.HasNext(),
	}
	switch {
	case p.Shown == 0 && p.SearchTerm != "":
		p.Info = fmt.Sprintf("No documents match %q", p.SearchTerm)
	case p.Shown == 0:
		p.Info = "No documents"
	default:
		first := (p.Page-1)*pageSize + 1
		if page.Source == domain.CatalogSourceLegacy {
			first = 1
		}
		last := first + p.Shown - 1
		p.Info = fmt.Sprintf("Documents %d-%d of %d (page %d of %d)", first, last, p.TotalCount, p.Page, p.TotalPages)
	}
	return p
}

func (p Pager) Node() *html.Node {
	return appendChildren(element(atom.Nav, class("pager")),
		wrap(atom.Span, p.Info, class("pager-info")),
		pagerControl("Previous", "pager-prev", p.PreviousEnabled, p.Page-1, p.SearchTerm),
		pagerControl("Next", "pager-next", p.NextEnabled, p.Page+1, p.SearchTerm),
	)
}

func pagerControl(label, name string, enabled bool, target int, searchTerm string) *html.Node {
	if !enabled {
		return wrap(atom.Span, label, class(name+" disabled"), attr("aria-disabled", "true"))
	}
	return wrap(atom.A, label, class(name), attr("href", DocumentsHref(target, searchTerm)))
}
