package ports

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
)

// Service names a configured backend base URL.
type Service string

const (
	ServiceAuth Service = "auth"
	ServiceRAG  Service = "rag"
)

// Call describes one backend request. JSON and Form are mutually exclusive.
type Call struct {
	Service   Service
	Method    string
	Path      string
	Query     url.Values
	JSON      any
	Form      *Form
	Operation string

	// Breaker names the circuit breaker guarding the call. Empty means the
	// breaker of Service.
	Breaker string
}

// Form is a multipart body. Fields keep their insertion order on the wire.
type Form struct {
	Fields []FormField
	Files  []FormFile
}

type FormField struct {
	Name  string
	Value string
}

type FormFile struct {
	Field    string
	Filename string
	Body     io.Reader
}

func (f *Form) AddField(name, value string) {
	f.Fields = append(f.Fields, FormField{Name: name, Value: value})
}

func (f *Form) AddFile(field, filename string, body io.Reader) {
	f.Files = append(f.Files, FormFile{Field: field, Filename: filename, Body: body})
}

// Transport performs a single backend call and returns the raw JSON body.
type Transport interface {
	Do(ctx context.Context, call Call) (json.RawMessage, error)
}

// ExtractedText is an upload converted to UTF-8 text. Filename is the name
// the text is uploaded under.
type ExtractedText struct {
	Filename string
	Text     string
}

// TextExtractor converts an upload into plain text before it is sent.
type TextExtractor interface {
	Supports(filename string) bool
	Extract(ctx context.Context, filename string, body io.Reader) (ExtractedText, error)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a plain function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// UsageRecorder receives outcome counters from the use cases.
type UsageRecorder interface {
	RecordCatalogListing(source string, degradedRows int)
	RecordChatTurn(mode string, failed bool)
	RecordRetrievalDegraded()
}
