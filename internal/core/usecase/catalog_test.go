package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
)

var errDial = &domain.TransportError{Kind: domain.ErrNetworkUnavailable, Err: errors.New("dial tcp: connection refused")}

// legacyCorpus serves the id list and detail endpoints for docs keyed by id.
func legacyCorpus(f *routeTransport, ids []string, docs map[string]string) {
	list, _ := json.Marshal(map[string]any{"status": "success", "doc_ids": ids})
	f.reply(pathDocumentIDs, string(list))
	f.on(pathDocumentContent, func(call ports.Call) transportResponse {
		id := call.Query.Get("doc_id")
		body, ok := docs[id]
		if !ok {
			return transportResponse{err: &domain.TransportError{Kind: domain.ErrHTTPStatus, StatusCode: http.StatusInternalServerError, Detail: "lookup failed"}}
		}
		return transportResponse{body: body}
	})
}

func detailBody(id, title, author, content string) string {
	raw, _ := json.Marshal(map[string]any{
		"status": "success",
		"document": map[string]any{
			"doc_id": id, "title": title, "author": author, "tags": "go, rag", "content": content,
		},
	})
	return string(raw)
}

func TestListDocumentsUsesPagedEndpoint(t *testing.T) {
	f := newRouteTransport()
	f.reply(pathPagedDocuments, `{
		"status":"success",
		"documents":[{"doc_id":"d4","title":"Four","author":"Ann"},{"doc_id":"d5"},{"doc_id":"d6","title":"Six"}],
		"pagination":{"page":2,"total_pages":2,"total_docs":13}
	}`)
	recorder := &recorderFake{}
	uc := NewCatalogUseCase(f, nil, recorder, 10)

	page, err := uc.ListDocuments(context.Background(), 2, "  ")
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if page.Page != 2 || page.TotalPages != 2 || page.TotalCount != 13 || len(page.Items) != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if !page.HasPrevious() || page.HasNext() {
		t.Fatalf("expected previous enabled and next disabled on the last page")
	}
	if page.Source != domain.CatalogSourcePaged {
		t.Fatalf("expected paged source, got %q", page.Source)
	}
	if got := page.Items[1].DisplayTitle(); got != "d5" {
		t.Fatalf("missing title should fall back to id, got %q", got)
	}

	calls := f.callsTo(pathPagedDocuments)
	if len(calls) != 1 {
		t.Fatalf("expected one paged call, got %d", len(calls))
	}
	q := calls[0].Query
	if q.Get("page") != "2" || q.Get("limit") != "10" || q.Has("search") {
		t.Fatalf("unexpected query: %v", q)
	}
	if len(f.callsTo(pathDocumentIDs)) != 0 {
		t.Fatalf("legacy endpoint must not be called after paged success")
	}
	if !reflect.DeepEqual(recorder.listings, []string{"paged"}) {
		t.Fatalf("unexpected listings: %v", recorder.listings)
	}
}

func TestListDocumentsPagedWithoutPagination(t *testing.T) {
	f := newRouteTransport()
	f.reply(pathPagedDocuments, `{"status":"success","documents":[{"doc_id":"a"},{"doc_id":"b"}]}`)
	uc := NewCatalogUseCase(f, nil, nil, 10)

	page, err := uc.ListDocuments(context.Background(), 3, "")
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if page.Page != 1 || page.TotalPages != 1 || page.TotalCount != 2 {
		t.Fatalf("expected clamped single page, got %+v", page)
	}
}

func TestListDocumentsCapsPagedItemsAtPageSize(t *testing.T) {
	f := newRouteTransport()
	f.reply(pathPagedDocuments, `{"status":"success","documents":[{"doc_id":"a"},{"doc_id":"b"},{"doc_id":"c"}],"pagination":{"page":1,"total_pages":2,"total_docs":3}}`)
	uc := NewCatalogUseCase(f, nil, nil, 2)

	page, err := uc.ListDocuments(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
}

func TestListDocumentsFallsBackOnPagedFailures(t *testing.T) {
	failures := map[string]func(f *routeTransport){
		"http 404": func(f *routeTransport) {
			f.fail(pathPagedDocuments, &domain.TransportError{Kind: domain.ErrHTTPStatus, StatusCode: http.StatusNotFound, Detail: "Not Found"})
		},
		"non-success status": func(f *routeTransport) {
			f.reply(pathPagedDocuments, `{"status":"error","detail":"index offline"}`)
		},
		"network": func(f *routeTransport) {
			f.fail(pathPagedDocuments, errDial)
		},
		"undecodable": func(f *routeTransport) {
			f.reply(pathPagedDocuments, `{"status":"success","documents":"nope"}`)
		},
	}
	for name, setup := range failures {
		t.Run(name, func(t *testing.T) {
			f := newRouteTransport()
			setup(f)
			legacyCorpus(f, []string{"d1", "d2"}, map[string]string{
				"d1": detailBody("d1", "Alpha", "Ann", "first"),
				"d2": detailBody("d2", "Beta", "", "second"),
			})
			uc := NewCatalogUseCase(f, nil, nil, 10)

			page, err := uc.ListDocuments(context.Background(), 1, "")
			if err != nil {
				t.Fatalf("ListDocuments() error = %v", err)
			}
			if page.Source != domain.CatalogSourceLegacy {
				t.Fatalf("expected legacy source, got %q", page.Source)
			}
			want := []string{pathPagedDocuments, pathDocumentIDs, pathDocumentContent, pathDocumentContent}
			if !reflect.DeepEqual(f.paths(), want) {
				t.Fatalf("expected sequential calls %v, got %v", want, f.paths())
			}
		})
	}
}

func TestListDocumentsFallbackMatchesPagedOutput(t *testing.T) {
	paged := newRouteTransport()
	paged.reply(pathPagedDocuments, `{"status":"success","documents":[
		{"doc_id":"d1","title":"Alpha","author":"Ann","tags":["go"],"content":"first"},
		{"doc_id":"d2","title":"Beta","author":"","content":"second"}
	]}`)

	legacy := newRouteTransport()
	legacy.fail(pathPagedDocuments, errDial)
	legacyCorpus(legacy, []string{"d1", "d2"}, map[string]string{
		"d1": detailBody("d1", "Alpha", "Ann", "first"),
		"d2": detailBody("d2", "Beta", "", "second"),
	})

	fromPaged, err := NewCatalogUseCase(paged, nil, nil, 10).ListDocuments(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("paged: %v", err)
	}
	fromLegacy, err := NewCatalogUseCase(legacy, nil, nil, 10).ListDocuments(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("legacy: %v", err)
	}
	if !reflect.DeepEqual(fromPaged.Items, fromLegacy.Items) {
		t.Fatalf("rows differ:\npaged  %+v\nlegacy %+v", fromPaged.Items, fromLegacy.Items)
	}
}

func TestListDocumentsLegacyDegradesFailedDetail(t *testing.T) {
	f := newRouteTransport()
	f.fail(pathPagedDocuments, errDial)
	ids := []string{"doc-5", "doc-6", "doc-7", "doc-8", "doc-9"}
	docs := map[string]string{}
	for _, id := range ids[:4] {
		docs[id] = detailBody(id, "Title "+id, "Ann", "body")
	}
	legacyCorpus(f, ids, docs)
	recorder := &recorderFake{}
	uc := NewCatalogUseCase(f, nil, recorder, 10)

	page, err := uc.ListDocuments(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(page.Items) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(page.Items))
	}
	last := page.Items[4]
	if last.ID != "doc-9" || last.Title != "" || last.Author != "" || last.Resolved {
		t.Fatalf("expected id-only degraded row, got %+v", last)
	}
	for i, id := range ids {
		if page.Items[i].ID != id {
			t.Fatalf("row %d: expected %s, got %s", i, id, page.Items[i].ID)
		}
	}
	if page.Page != 1 || page.TotalPages != 1 || page.TotalCount != 5 {
		t.Fatalf("unexpected pagination: %+v", page)
	}
	if recorder.degradedRows != 1 {
		t.Fatalf("expected 1 degraded row recorded, got %d", recorder.degradedRows)
	}
}

func TestListDocumentsLegacySearchKeepsUnresolvedRows(t *testing.T) {
	f := newRouteTransport()
	f.fail(pathPagedDocuments, errDial)
	legacyCorpus(f, []string{"d1", "d2", "d3", "d4"}, map[string]string{
		"d1": detailBody("d1", "Kubernetes Notes", "", "pods"),
		"d2": detailBody("d2", "Cooking", "", "pasta"),
		"d3": detailBody("d3", "Misc", "", "all about KUBERNETES"),
	})
	uc := NewCatalogUseCase(f, nil, nil, 10)

	page, err := uc.ListDocuments(context.Background(), 1, "kubernetes")
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	var got []string
	for _, item := range page.Items {
		got = append(got, item.ID)
	}
	if !reflect.DeepEqual(got, []string{"d1", "d3", "d4"}) {
		t.Fatalf("unexpected rows: %v", got)
	}
	if page.SearchTerm != "kubernetes" {
		t.Fatalf("expected search term to be kept, got %q", page.SearchTerm)
	}
	if page.Items[1].Content != "" {
		t.Fatalf("catalog rows must not carry content")
	}
}

func TestListDocumentsRowOrderIsStable(t *testing.T) {
	f := newRouteTransport()
	f.fail(pathPagedDocuments, errDial)
	ids := []string{"z", "a", "m", "b"}
	docs := map[string]string{}
	for _, id := range ids {
		docs[id] = detailBody(id, strings.ToUpper(id), "", "")
	}
	legacyCorpus(f, ids, docs)
	uc := NewCatalogUseCase(f, nil, nil, 10)

	first, err := uc.ListDocuments(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := uc.ListDocuments(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !reflect.DeepEqual(first.Items, second.Items) {
		t.Fatalf("row order changed between calls")
	}
	if first.Items[0].ID != "z" || first.Items[3].ID != "b" {
		t.Fatalf("rows must keep id-list order, got %+v", first.Items)
	}
}

func TestListDocumentsTotalFailure(t *testing.T) {
	f := newRouteTransport()
	f.fail(pathPagedDocuments, errDial)
	f.fail(pathDocumentIDs, errDial)
	uc := NewCatalogUseCase(f, nil, nil, 10)

	page, err := uc.ListDocuments(context.Background(), 1, "")
	if page != nil {
		t.Fatalf("no partial page may be returned")
	}
	if !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected catalog unavailable, got %v", err)
	}
	if !errors.Is(err, domain.ErrNetworkUnavailable) {
		t.Fatalf("expected legacy cause in chain, got %v", err)
	}
}

func TestListDocumentsStopsOnCancellation(t *testing.T) {
	f := newRouteTransport()
	f.fail(pathPagedDocuments, context.Canceled)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCatalogUseCase(f, nil, nil, 10).ListDocuments(ctx, 1, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(f.callsTo(pathDocumentIDs)) != 0 {
		t.Fatalf("cancelled listing must not fall back")
	}
}

func TestFetchDocumentDetail(t *testing.T) {
	f := newRouteTransport()
	f.reply(pathDocumentContent, `{"status":"success","document":{"title":"Guide","author":"Bo","tags":"a, b,,c","content":"text"}}`)
	uc := NewCatalogUseCase(f, nil, nil, 10)

	doc, err := uc.FetchDocumentDetail(context.Background(), " doc-1 ")
	if err != nil {
		t.Fatalf("FetchDocumentDetail() error = %v", err)
	}
	if doc.ID != "doc-1" || doc.Title != "Guide" || doc.Content != "text" || !doc.Resolved {
		t.Fatalf("unexpected doc: %+v", doc)
	}
	if !reflect.DeepEqual(doc.Tags, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected tags: %v", doc.Tags)
	}
	call := f.callsTo(pathDocumentContent)[0]
	if got := call.Query.Get("doc_id"); got != "doc-1" {
		t.Fatalf("expected trimmed id in query, got %q", got)
	}
	if call.Breaker != detailBreaker {
		t.Fatalf("detail fetches must use their own breaker, got %q", call.Breaker)
	}
}

func TestFetchDocumentDetailNotFound(t *testing.T) {
	cases := map[string]func(f *routeTransport){
		"non-success": func(f *routeTransport) {
			f.reply(pathDocumentContent, `{"status":"error","detail":"no such document"}`)
		},
		"missing document": func(f *routeTransport) {
			f.reply(pathDocumentContent, `{"status":"success"}`)
		},
		"http 404": func(f *routeTransport) {
			f.fail(pathDocumentContent, &domain.TransportError{Kind: domain.ErrHTTPStatus, StatusCode: http.StatusNotFound, Detail: "missing"})
		},
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			f := newRouteTransport()
			setup(f)
			_, err := NewCatalogUseCase(f, nil, nil, 10).FetchDocumentDetail(context.Background(), "doc-9")
			if !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}
}

func TestFetchDocumentDetailKeepsTransportFailure(t *testing.T) {
	f := newRouteTransport()
	f.fail(pathDocumentContent, errDial)
	_, err := NewCatalogUseCase(f, nil, nil, 10).FetchDocumentDetail(context.Background(), "doc-1")
	if errors.Is(err, domain.ErrNotFound) || !errors.Is(err, domain.ErrNetworkUnavailable) {
		t.Fatalf("transport failure must stay distinct from not found, got %v", err)
	}
}

func TestFetchDocumentDetailRequiresID(t *testing.T) {
	f := newRouteTransport()
	_, err := NewCatalogUseCase(f, nil, nil, 10).FetchDocumentDetail(context.Background(), "  ")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(f.paths()) != 0 {
		t.Fatalf("no request expected")
	}
}

func TestDeleteDocument(t *testing.T) {
	f := newRouteTransport()
	var sent map[string]any
	f.on(pathDocumentDelete, func(call ports.Call) transportResponse {
		raw, _ := json.Marshal(call.JSON)
		_ = json.Unmarshal(raw, &sent)
		return transportResponse{body: `{"status":"success","message":"deleted"}`}
	})
	uc := NewCatalogUseCase(f, nil, nil, 10)

	if err := uc.DeleteDocument(context.Background(), "doc-7"); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if sent["doc_id"] != "doc-7" {
		t.Fatalf("unexpected payload: %v", sent)
	}
	if call := f.callsTo(pathDocumentDelete)[0]; call.Method != http.MethodPost {
		t.Fatalf("expected POST, got %s", call.Method)
	}
}

func TestDeleteDocumentBackendFailure(t *testing.T) {
	f := newRouteTransport()
	f.reply(pathDocumentDelete, `{"status":"error","detail":"locked"}`)
	err := NewCatalogUseCase(f, nil, nil, 10).DeleteDocument(context.Background(), "doc-7")
	if !errors.Is(err, domain.ErrBackendFailure) {
		t.Fatalf("expected backend failure, got %v", err)
	}
	if domain.Detail(err) != "locked" {
		t.Fatalf("expected backend detail, got %q", domain.Detail(err))
	}
}

func TestPingUsesIDList(t *testing.T) {
	f := newRouteTransport()
	f.reply(pathDocumentIDs, `{"status":"success","doc_ids":[]}`)
	if err := NewCatalogUseCase(f, nil, nil, 10).Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	down := newRouteTransport()
	down.fail(pathDocumentIDs, errDial)
	if err := NewCatalogUseCase(down, nil, nil, 10).Ping(context.Background()); !errors.Is(err, domain.ErrNetworkUnavailable) {
		t.Fatalf("expected network error, got %v", err)
	}
}

type extractorFake struct {
	supported bool
	err       error
}

func (e extractorFake) Supports(string) bool { return e.supported }

func (e extractorFake) Extract(_ context.Context, filename string, body io.Reader) (ports.ExtractedText, error) {
	if e.err != nil {
		return ports.ExtractedText{}, e.err
	}
	raw, _ := io.ReadAll(body)
	return ports.ExtractedText{Filename: strings.TrimSuffix(filename, ".pdf") + ".txt", Text: "converted:" + string(raw)}, nil
}

func TestUploadFileConvertsAndDefaultsTitle(t *testing.T) {
	f := newRouteTransport()
	var form *ports.Form
	f.on(pathUploadFile, func(call ports.Call) transportResponse {
		form = call.Form
		return transportResponse{body: `{"status":"success","doc_id":"new-1"}`}
	})
	uc := NewCatalogUseCase(f, extractorFake{supported: true}, nil, 10)

	err := uc.UploadFile(context.Background(), domain.FileUpload{
		Filename: "report.pdf",
		Body:     strings.NewReader("raw"),
		Tags:     []string{" q3 ", "", "finance"},
	})
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if form == nil || len(form.Files) != 1 {
		t.Fatalf("expected one multipart file, got %+v", form)
	}
	if form.Files[0].Filename != "report.txt" {
		t.Fatalf("expected converted name, got %q", form.Files[0].Filename)
	}
	content, _ := io.ReadAll(form.Files[0].Body)
	if string(content) != "converted:raw" {
		t.Fatalf("unexpected content: %q", content)
	}
	fields := map[string]string{}
	for _, field := range form.Fields {
		fields[field.Name] = field.Value
	}
	if fields["title"] != "report.pdf" {
		t.Fatalf("title should default to the file name, got %q", fields["title"])
	}
	if fields["tags"] != `["q3","finance"]` {
		t.Fatalf("unexpected tags field: %q", fields["tags"])
	}
}

func TestUploadFileSurfacesFailures(t *testing.T) {
	t.Run("extraction", func(t *testing.T) {
		f := newRouteTransport()
		extractErr := domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("bad bytes"))
		err := NewCatalogUseCase(f, extractorFake{supported: true, err: extractErr}, nil, 10).
			UploadFile(context.Background(), domain.FileUpload{Filename: "x.bin", Body: strings.NewReader("x")})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected invalid input, got %v", err)
		}
		if len(f.paths()) != 0 {
			t.Fatalf("nothing may be sent when extraction fails")
		}
	})
	t.Run("backend", func(t *testing.T) {
		f := newRouteTransport()
		f.fail(pathUploadFile, &domain.TransportError{Kind: domain.ErrHTTPStatus, StatusCode: 500, Detail: "upload failed: bad encoding"})
		err := NewCatalogUseCase(f, nil, nil, 10).
			UploadFile(context.Background(), domain.FileUpload{Filename: "x.txt", Body: strings.NewReader("x")})
		if domain.Detail(err) != "upload failed: bad encoding" {
			t.Fatalf("expected backend detail, got %v", err)
		}
	})
}

func TestUploadText(t *testing.T) {
	f := newRouteTransport()
	var sent textUploadRequest
	f.on(pathUploadText, func(call ports.Call) transportResponse {
		sent = call.JSON.(textUploadRequest)
		return transportResponse{body: `{"status":"success","doc_id":"t-1"}`}
	})
	uc := NewCatalogUseCase(f, nil, nil, 10)

	if err := uc.UploadText(context.Background(), domain.TextUpload{Text: "hello", Tags: ParseTags("a,,b ")}); err != nil {
		t.Fatalf("UploadText() error = %v", err)
	}
	if sent.Title != defaultTextTitle || sent.Document != "hello" || !reflect.DeepEqual(sent.Tags, []string{"a", "b"}) {
		t.Fatalf("unexpected request: %+v", sent)
	}

	if err := uc.UploadText(context.Background(), domain.TextUpload{Text: "   "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank text, got %v", err)
	}
}
