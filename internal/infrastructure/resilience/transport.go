package resilience

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
)

// Transport guards every call to a backend service with one shared breaker
// per service (or per Call.Breaker) and the executor's retry policy.
type Transport struct {
	next     ports.Transport
	executor *Executor
}

func NewTransport(next ports.Transport, executor *Executor) *Transport {
	return &Transport{next: next, executor: executor}
}

func (t *Transport) Do(ctx context.Context, call ports.Call) (json.RawMessage, error) {
	if t.executor == nil {
		return t.next.Do(ctx, call)
	}

	attempt, err := replayable(call)
	if err != nil {
		return nil, err
	}

	var out json.RawMessage
	err = t.executor.Execute(ctx, breakerKey(call), func(ctx context.Context) error {
		body, err := t.next.Do(ctx, attempt())
		if err != nil {
			return err
		}
		out = body
		return nil
	}, ClassifyTransportError)
	if err != nil {
		return nil, wrapCircuitOpen(call, err)
	}
	return out, nil
}

func breakerKey(call ports.Call) string {
	if call.Breaker != "" {
		return call.Breaker
	}
	return string(call.Service)
}

// replayable reads multipart file bodies once so that every attempt sends
// the full content.
func replayable(call ports.Call) (func() ports.Call, error) {
	if call.Form == nil || len(call.Form.Files) == 0 {
		return func() ports.Call { return call }, nil
	}
	contents := make([][]byte, len(call.Form.Files))
	for i, file := range call.Form.Files {
		if file.Body == nil {
			continue
		}
		raw, err := io.ReadAll(file.Body)
		if err != nil {
			return nil, fmt.Errorf("buffer multipart file %q: %w", file.Field, err)
		}
		contents[i] = raw
	}
	return func() ports.Call {
		form := &ports.Form{
			Fields: call.Form.Fields,
			Files:  make([]ports.FormFile, len(call.Form.Files)),
		}
		for i, file := range call.Form.Files {
			if file.Body != nil {
				file.Body = bytes.NewReader(contents[i])
			}
			form.Files[i] = file
		}
		next := call
		next.Form = form
		return next
	}, nil
}

// ClassifyTransportError retries and counts only failures that say something
// about backend health.
func ClassifyTransportError(err error) ErrorClassification {
	if err == nil {
		return ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassification{}
	}
	if IsCircuitOpen(err) {
		return ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}
	if errors.Is(err, domain.ErrNetworkUnavailable) {
		return ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) && errors.Is(transportErr.Kind, domain.ErrHTTPStatus) {
		if isRetryableHTTPStatus(transportErr.StatusCode) {
			return ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		}
	}

	return ErrorClassification{}
}

func wrapCircuitOpen(call ports.Call, err error) error {
	if !IsCircuitOpen(err) {
		return err
	}
	operation := call.Operation
	if operation == "" {
		operation = string(call.Service)
	}
	return &domain.TransportError{
		Kind:      domain.ErrTemporary,
		Operation: operation,
		Detail:    "the " + string(call.Service) + " service is temporarily unavailable, try again shortly",
		Err:       err,
	}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
