package render

import (
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kirillkom/ragdesk/internal/core/domain"
)

const (
	documentsPath      = "/fragments/documents"
	documentViewPath   = "/fragments/documents/view"
	documentDeletePath = "/fragments/documents/delete"
)

// CatalogTable renders one catalog page. An empty page renders a single
// placeholder row instead of an empty body.
func CatalogTable(page *domain.CatalogPage) *html.Node {
	headRow := element(atom.Tr)
	for _, label := range []string{"ID", "Title", "Author", "Actions"} {
		headRow.AppendChild(wrap(atom.Th, label))
	}

	body := element(atom.Tbody)
	if page.IsEmpty() {
		message := "No documents"
		if page != nil && page.SearchTerm != "" {
			message = fmt.Sprintf("No documents match %q", page.SearchTerm)
		}
		body.AppendChild(appendChildren(
			element(atom.Tr, class("placeholder")),
			wrap(atom.Td, message, attr("colspan", "4")),
		))
	} else {
		for _, doc := range page.Items {
			body.AppendChild(catalogRow(doc))
		}
	}

	return appendChildren(element(atom.Table, class("documents")),
		appendChildren(element(atom.Thead), headRow),
		body,
	)
}

func catalogRow(doc domain.DocumentRecord) *html.Node {
	attrs := []html.Attribute{attr("data-doc-id", doc.ID)}
	if !doc.Resolved {
		attrs = append([]html.Attribute{class("degraded")}, attrs...)
	}

	deleteForm := appendChildren(
		element(atom.Form, class("delete"), attr("method", "post"), attr("action", documentDeletePath)),
		element(atom.Input, attr("type", "hidden"), attr("name", "doc_id"), attr("value", doc.ID)),
		wrap(atom.Button, "Delete", attr("type", "submit")),
	)
	actions := appendChildren(element(atom.Td, class("actions")),
		wrap(atom.A, "View", class("view"), attr("href", DocumentViewHref(doc.ID))),
		deleteForm,
	)

	return appendChildren(element(atom.Tr, attrs...),
		wrap(atom.Td, doc.ID),
		wrap(atom.Td, doc.DisplayTitle()),
		wrap(atom.Td, orPlaceholder(doc.Author)),
		actions,
	)
}

// ConfirmDelete asks for the second step of a delete. Cancelling returns to
// the given catalog position.
func ConfirmDelete(id string, page int, searchTerm string) *html.Node {
	return appendChildren(
		element(atom.Form, class("confirm-delete"), attr("method", "post"), attr("action", documentDeletePath)),
		wrap(atom.P, fmt.Sprintf("Delete document %s? This cannot be undone.", id)),
		element(atom.Input, attr("type", "hidden"), attr("name", "doc_id"), attr("value", id)),
		element(atom.Input, attr("type", "hidden"), attr("name", "confirm"), attr("value", "yes")),
		wrap(atom.Button, "Delete", attr("type", "submit")),
		wrap(atom.A, "Cancel", attr("href", DocumentsHref(page, searchTerm))),
	)
}

// DocumentDetail renders a full document with its tags and content.
func DocumentDetail(doc *domain.DocumentRecord) *html.Node {
	if doc == nil {
		return Notice(NoticeError, "Document not found.")
	}

	tags := element(atom.Dd, class("tags"))
	if len(doc.Tags) == 0 {
		tags.AppendChild(text("-"))
	}
	for _, tag := range doc.Tags {
		tags.AppendChild(wrap(atom.Span, tag, class("tag")))
	}

	meta := appendChildren(element(atom.Dl),
		wrap(atom.Dt, "ID"), wrap(atom.Dd, doc.ID),
		wrap(atom.Dt, "Author"), wrap(atom.Dd, orPlaceholder(doc.Author)),
		wrap(atom.Dt, "Tags"), tags,
	)

	return appendChildren(element(atom.Article, class("document"), attr("data-doc-id", doc.ID)),
		wrap(atom.H2, doc.DisplayTitle()),
		meta,
		wrap(atom.Pre, doc.Content, class("content")),
	)
}

func DocumentsHref(page int, searchTerm string) string {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if searchTerm != "" {
		query.Set("search", searchTerm)
	}
	return documentsPath + "?" + query.Encode()
}

func DocumentViewHref(id string) string {
	return documentViewPath + "?" + url.Values{"doc_id": {id}}.Encode()
}
