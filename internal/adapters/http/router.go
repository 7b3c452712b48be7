package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/kirillkom/ragdesk/internal/adapters/render"
	"github.com/kirillkom/ragdesk/internal/config"
	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
	"github.com/kirillkom/ragdesk/internal/core/usecase"
	"github.com/kirillkom/ragdesk/internal/observability/metrics"
)

const (
	maxUploadBytes = 32 << 20
	pageTitle      = "RAG desk"
)

// CatalogService is the part of the catalog use case the web server drives.
type CatalogService interface {
	ports.DocumentCatalog
	ports.DocumentUploader
	Ping(ctx context.Context) error
}

type Router struct {
	cfg      config.Config
	catalog  CatalogService
	chat     ports.ChatOrchestrator
	renderer *render.Renderer
	metrics  *metrics.HTTPServerMetrics
	sessions *sessionStore
	breakers func() map[string]string
}

func NewRouter(
	cfg config.Config,
	catalog CatalogService,
	chat ports.ChatOrchestrator,
	renderer *render.Renderer,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	if renderer == nil {
		renderer = render.NewRenderer(nil)
	}
	return &Router{
		cfg:      cfg,
		catalog:  catalog,
		chat:     chat,
		renderer: renderer,
		metrics:  serverMetrics,
		sessions: newSessionStore(catalog, chat),
	}
}

// WithBreakers adds circuit breaker states, keyed by backend service, to the
// deep health check.
func (rt *Router) WithBreakers(states func() map[string]string) *Router {
	rt.breakers = states
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	authed := func(h http.HandlerFunc) http.Handler { return requireUser(h) }
	mux.Handle("GET /{$}", authed(rt.index))
	mux.Handle("GET /fragments/documents", authed(rt.listDocuments))
	mux.Handle("GET /fragments/documents/view", authed(rt.viewDocument))
	mux.Handle("POST /fragments/documents/delete", authed(rt.deleteDocument))
	mux.Handle("POST /fragments/documents/upload", authed(rt.uploadFile))
	mux.Handle("POST /fragments/documents/text", authed(rt.uploadText))
	mux.Handle("POST /fragments/chat", authed(rt.sendChat))
	mux.Handle("POST /fragments/chat/clear", authed(rt.clearChat))
	mux.Handle("GET /fragments/retrieve", authed(rt.retrieve))
	mux.Handle("GET /fragments/stats", authed(rt.stats))

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.cfg.WebRateLimitRPS, rt.cfg.WebRateLimitBurst)
	handler = backpressureMiddleware(handler, rt.cfg.WebMaxInFlight, time.Duration(rt.cfg.WebQueueWaitMS)*time.Millisecond)
	handler = rt.metrics.Middleware("web", handler)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("deep") != "1" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	body := map[string]any{"status": "ok", "rag": "reachable"}
	if rt.breakers != nil {
		body["breakers"] = rt.breakers()
	}
	if err := rt.catalog.Ping(r.Context()); err != nil {
		body["status"] = "degraded"
		body["rag"] = "unreachable"
		body["error"] = domain.Detail(err)
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (rt *Router) index(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	session := rt.sessions.get(user)

	catalogNodes := []*html.Node{render.SearchForm("")}
	page, err := session.catalog.Load(r.Context(), 1, "")
	if err != nil {
		catalogNodes = append(catalogNodes, render.Notice(render.NoticeError, "Could not load documents: "+domain.Detail(err)))
	} else {
		catalogNodes = append(catalogNodes, rt.catalogNodes(page)...)
	}

	doc := render.Page(pageTitle, user,
		render.Section("catalog", "Documents", catalogNodes...),
		render.Section("upload", "Add documents", render.UploadFileForm(), render.UploadTextForm()),
		render.Section("chat", "Chat", rt.renderer.Transcript(session.chat.Transcript()), render.ChatForm(true), render.ClearChatForm()),
		render.Section("retrieve", "Search knowledge base", rt.knowledgeCount(r), render.RetrieveForm()),
	)
	writeFragment(w, http.StatusOK, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	session := rt.sessions.get(userFromContext(r.Context()))
	query := r.URL.Query()

	page, err := session.catalog.Load(r.Context(), parsePage(query.Get("page")), query.Get("search"))
	if err != nil {
		writeError(w, r, "list documents", err)
		return
	}
	writeFragment(w, http.StatusOK, rt.catalogNodes(page)...)
}

func (rt *Router) viewDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.catalog.FetchDocumentDetail(r.Context(), r.URL.Query().Get("doc_id"))
	if err != nil {
		writeError(w, r, "view document", err)
		return
	}
	writeFragment(w, http.StatusOK, render.DocumentDetail(doc))
}

// deleteDocument is a two-step form: the first post returns a confirmation
// form, the second carries confirm=yes.
func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PostFormValue("doc_id"))
	if id == "" {
		writeNotice(w, http.StatusBadRequest, render.NoticeError, "Choose a document to delete.")
		return
	}
	confirmed := r.PostFormValue("confirm") == "yes"
	session := rt.sessions.get(userFromContext(r.Context()))

	page, err := session.catalog.Delete(r.Context(), id, ports.ConfirmFunc(func(context.Context, string) (bool, error) {
		return confirmed, nil
	}))
	switch {
	case domain.IsKind(err, domain.ErrDeleteCancelled):
		position, search := session.catalog.Position()
		writeFragment(w, http.StatusOK, render.ConfirmDelete(id, position, search))
	case domain.IsKind(err, domain.ErrRefreshAfterDelete):
		nodes := []*html.Node{render.Notice(render.NoticeSuccess, fmt.Sprintf("Document %s deleted.", id))}
		if !domain.IsKind(err, domain.ErrStaleResponse) {
			nodes = append(nodes, render.Notice(render.NoticeError, "Could not refresh documents: "+domain.Detail(err)))
		}
		writeFragment(w, http.StatusOK, nodes...)
	case err != nil:
		writeError(w, r, "delete document", err)
	default:
		nodes := append([]*html.Node{render.Notice(render.NoticeSuccess, fmt.Sprintf("Document %s deleted.", id))}, rt.catalogNodes(page)...)
		writeFragment(w, http.StatusOK, nodes...)
	}
}

func (rt *Router) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeNotice(w, http.StatusBadRequest, render.NoticeError, "Choose a file to upload.")
		return
	}
	defer file.Close()

	err = rt.catalog.UploadFile(r.Context(), domain.FileUpload{
		Filename: header.Filename,
		Body:     file,
		Title:    r.FormValue("title"),
		Author:   r.FormValue("author"),
		Tags:     usecase.ParseTags(r.FormValue("tags")),
	})
	if err != nil {
		writeError(w, r, "upload file", err)
		return
	}
	rt.writeUploaded(w, r, fmt.Sprintf("Uploaded %s.", header.Filename))
}

func (rt *Router) uploadText(w http.ResponseWriter, r *http.Request) {
	err := rt.catalog.UploadText(r.Context(), domain.TextUpload{
		Text:   r.PostFormValue("document"),
		Title:  r.PostFormValue("title"),
		Author: r.PostFormValue("author"),
		Tags:   usecase.ParseTags(r.PostFormValue("tags")),
	})
	if err != nil {
		writeError(w, r, "upload text", err)
		return
	}
	rt.writeUploaded(w, r, "Text document added.")
}

// writeUploaded reports a successful upload together with the refreshed
// catalog. A failed refresh keeps the success notice.
func (rt *Router) writeUploaded(w http.ResponseWriter, r *http.Request, message string) {
	session := rt.sessions.get(userFromContext(r.Context()))
	nodes := []*html.Node{render.Notice(render.NoticeSuccess, message)}
	page, err := session.catalog.Refresh(r.Context())
	if err != nil && !errors.Is(err, domain.ErrStaleResponse) {
		nodes = append(nodes, render.Notice(render.NoticeError, "Could not refresh documents: "+domain.Detail(err)))
	} else if err == nil {
		nodes = append(nodes, rt.catalogNodes(page)...)
	}
	writeFragment(w, http.StatusOK, nodes...)
}

func (rt *Router) sendChat(w http.ResponseWriter, r *http.Request) {
	session := rt.sessions.get(userFromContext(r.Context()))
	added, err := session.chat.Submit(r.Context(), r.PostFormValue("message"), parseBool(r.PostFormValue("use_rag")))
	if err != nil {
		writeError(w, r, "send message", err)
		return
	}
	if len(added) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	nodes := make([]*html.Node, 0, len(added))
	for _, turn := range added {
		nodes = append(nodes, rt.renderer.ChatMessage(turn))
	}
	writeFragment(w, http.StatusOK, nodes...)
}

func (rt *Router) clearChat(w http.ResponseWriter, r *http.Request) {
	session := rt.sessions.get(userFromContext(r.Context()))
	session.chat.Reset()
	writeFragment(w, http.StatusOK, rt.renderer.Transcript(nil))
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	result, err := rt.chat.Retrieve(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, "search knowledge base", err)
		return
	}
	writeFragment(w, http.StatusOK, render.RetrievalList(result))
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.chat.Stats(r.Context())
	if err != nil {
		writeError(w, r, "knowledge base stats", err)
		return
	}
	writeFragment(w, http.StatusOK, render.KnowledgeCount(stats))
}

// knowledgeCount degrades to an "unavailable" line so the shell still renders.
func (rt *Router) knowledgeCount(r *http.Request) *html.Node {
	stats, err := rt.chat.Stats(r.Context())
	if err != nil {
		slog.Warn("knowledge_stats_unavailable", "request_id", requestIDFromContext(r.Context()), "error", err)
		return render.KnowledgeCount(nil)
	}
	return render.KnowledgeCount(stats)
}

func (rt *Router) catalogNodes(page *domain.CatalogPage) []*html.Node {
	return []*html.Node{
		render.CatalogTable(page),
		render.NewPager(page, rt.cfg.PageSize).Node(),
	}
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
