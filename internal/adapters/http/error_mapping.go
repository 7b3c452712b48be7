package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/net/html"

	"github.com/kirillkom/ragdesk/internal/adapters/render"
	"github.com/kirillkom/ragdesk/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTurnInFlight), domain.IsKind(err, domain.ErrStaleResponse):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrCatalogUnavailable),
		domain.IsKind(err, domain.ErrNetworkUnavailable),
		domain.IsKind(err, domain.ErrHTTPStatus),
		domain.IsKind(err, domain.ErrMalformedResponse),
		domain.IsKind(err, domain.ErrBackendFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a plain-text notice; backend detail text is never
// interpreted as markup.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("web_operation_failed",
			"operation", operation,
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeNotice(w, status, render.NoticeError, operation+" failed: "+domain.Detail(err))
}

func writeNotice(w http.ResponseWriter, status int, level render.NoticeLevel, message string) {
	writeFragment(w, status, render.Notice(level, message))
}

func writeFragment(w http.ResponseWriter, status int, nodes ...*html.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := render.Render(w, nodes...); err != nil {
		slog.Error("web_render_failed", "error", err)
	}
}
