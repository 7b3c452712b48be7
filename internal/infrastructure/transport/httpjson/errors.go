package httpjson

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/ragdesk/internal/core/domain"
)

func formatHTTPStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := domain.DetailFromBody(body)
	if detail == "" {
		detail = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}
	return &domain.TransportError{
		Kind:       domain.ErrHTTPStatus,
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Detail:     detail,
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}
