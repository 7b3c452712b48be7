package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrHTTPStatus         = errors.New("unexpected http status")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrNotFound           = errors.New("not found")
	ErrBackendFailure     = errors.New("backend reported failure")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTemporary          = errors.New("temporary failure")

	// ErrCatalogUnavailable means both the paged and the legacy listing failed.
	ErrCatalogUnavailable = errors.New("document catalog unavailable")

	// ErrStaleResponse is returned for a response superseded by a newer request.
	ErrStaleResponse = errors.New("stale response")

	ErrTurnInFlight    = errors.New("a chat turn is already in flight")
	ErrDeleteCancelled = errors.New("delete cancelled")

	// ErrRefreshAfterDelete means the delete succeeded but the follow-up
	// listing did not.
	ErrRefreshAfterDelete = errors.New("document deleted, catalog refresh failed")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// TransportError is the normalized failure of a single backend call.
type TransportError struct {
	Kind       error
	Operation  string
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	var b strings.Builder
	if e.Operation != "" {
		b.WriteString(e.Operation)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("transport error")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// BackendError reports an HTTP 200 response whose payload signals failure.
func BackendError(operation, detail string) error {
	return &TransportError{
		Kind:      ErrBackendFailure,
		Operation: operation,
		Detail:    strings.TrimSpace(detail),
	}
}

// Detail returns the user-facing message carried by err.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Detail != "" {
			return transportErr.Detail
		}
		switch {
		case errors.Is(transportErr.Kind, ErrNetworkUnavailable):
			return "the service is unreachable"
		case errors.Is(transportErr.Kind, ErrMalformedResponse):
			return "the service returned an unreadable response"
		case transportErr.Kind != nil:
			return transportErr.Kind.Error()
		}
	}
	return err.Error()
}

// DetailFromBody extracts the optional "detail" field of a JSON error body.
func DetailFromBody(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}
	if string(payload.Detail) == "null" {
		return ""
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload.Detail); err != nil {
		return ""
	}
	return compact.String()
}
