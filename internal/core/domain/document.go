package domain

import "io"

// DocumentRecord is a document as the client sees it. Identity is ID; every
// other field is display metadata.
type DocumentRecord struct {
	ID      string   `json:"doc_id"`
	Title   string   `json:"title,omitempty"`
	Author  string   `json:"author,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Content string   `json:"content,omitempty"`

	// Resolved is false for rows whose metadata could not be fetched.
	Resolved bool `json:"resolved"`
}

func (d DocumentRecord) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.ID
}

// Summary keeps only the fields of a catalog row.
func (d DocumentRecord) Summary() DocumentRecord {
	return DocumentRecord{
		ID:       d.ID,
		Title:    d.Title,
		Author:   d.Author,
		Resolved: d.Resolved,
	}
}

type CatalogSource string

const (
	CatalogSourcePaged  CatalogSource = "paged"
	CatalogSourceLegacy CatalogSource = "legacy"
)

type CatalogPage struct {
	Items      []DocumentRecord `json:"items"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	TotalCount int              `json:"total_count"`
	SearchTerm string           `json:"search_term,omitempty"`
	Source     CatalogSource    `json:"source"`
}

func (p *CatalogPage) HasPrevious() bool {
	return p != nil && p.Page > 1
}

func (p *CatalogPage) HasNext() bool {
	return p != nil && p.Page < p.TotalPages
}

func (p *CatalogPage) IsEmpty() bool {
	return p == nil || len(p.Items) == 0
}

type FileUpload struct {
	Filename string
	Body     io.Reader
	Title    string
	Author   string
	Tags     []string
}

type TextUpload struct {
	Text   string
	Title  string
	Author string
	Tags   []string
}
