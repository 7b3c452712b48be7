package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
)

type scriptedTransport struct {
	calls int
	errs  []error
}

func (s *scriptedTransport) Do(context.Context, ports.Call) (json.RawMessage, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	return json.RawMessage(`{"status":"success"}`), nil
}

func statusErr(code int) error {
	return &domain.TransportError{Kind: domain.ErrHTTPStatus, StatusCode: code, Detail: "boom"}
}

func TestTransportRetriesServerErrors(t *testing.T) {
	next := &scriptedTransport{errs: []error{statusErr(http.StatusServiceUnavailable)}}
	tr := NewTransport(next, NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
	}))

	body, err := tr.Do(context.Background(), ports.Call{Service: ports.ServiceRAG})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if string(body) != `{"status":"success"}` {
		t.Fatalf("unexpected body: %s", body)
	}
	if next.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", next.calls)
	}
}

func TestTransportDoesNotRetryClientErrors(t *testing.T) {
	next := &scriptedTransport{errs: []error{statusErr(http.StatusNotFound), statusErr(http.StatusNotFound)}}
	tr := NewTransport(next, NewExecutor(Config{RetryMaxAttempts: 3, RetryInitialBackoff: time.Millisecond}))

	_, err := tr.Do(context.Background(), ports.Call{Service: ports.ServiceRAG})
	if !errors.Is(err, domain.ErrHTTPStatus) {
		t.Fatalf("expected status error, got %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected a single call, got %d", next.calls)
	}
}

func TestTransportOpenCircuitIsTemporary(t *testing.T) {
	netErr := &domain.TransportError{Kind: domain.ErrNetworkUnavailable, Err: errors.New("dial tcp: refused")}
	next := &scriptedTransport{errs: []error{netErr, netErr, netErr}}
	tr := NewTransport(next, NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}))

	for i := 0; i < 2; i++ {
		if _, err := tr.Do(context.Background(), ports.Call{Service: ports.ServiceRAG}); !errors.Is(err, domain.ErrNetworkUnavailable) {
			t.Fatalf("iteration %d: expected network error, got %v", i, err)
		}
	}

	_, err := tr.Do(context.Background(), ports.Call{Service: ports.ServiceRAG, Operation: "list documents"})
	if !errors.Is(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error from open circuit, got %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("open circuit must not reach the backend, got %d calls", next.calls)
	}
	if got := domain.Detail(err); got != "the rag service is temporarily unavailable, try again shortly" {
		t.Fatalf("unexpected detail: %q", got)
	}

	if _, err := tr.Do(context.Background(), ports.Call{Service: ports.ServiceAuth}); err != nil {
		t.Fatalf("auth service must have its own breaker, got %v", err)
	}
}

func TestClassifyTransportError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "network", err: &domain.TransportError{Kind: domain.ErrNetworkUnavailable}, retryable: true, record: true},
		{name: "429", err: statusErr(http.StatusTooManyRequests), retryable: true, record: true},
		{name: "500", err: statusErr(http.StatusInternalServerError), retryable: true, record: true},
		{name: "400", err: statusErr(http.StatusBadRequest)},
		{name: "malformed", err: &domain.TransportError{Kind: domain.ErrMalformedResponse}},
		{name: "canceled", err: context.Canceled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyTransportError(tc.err)
			if got.Retryable != tc.retryable || got.RecordFailure != tc.record {
				t.Fatalf("unexpected classification: %+v", got)
			}
		})
	}
}

type uploadRecorder struct {
	bodies []string
	errs   []error
}

func (u *uploadRecorder) Do(_ context.Context, call ports.Call) (json.RawMessage, error) {
	raw, err := io.ReadAll(call.Form.Files[0].Body)
	if err != nil {
		return nil, err
	}
	idx := len(u.bodies)
	u.bodies = append(u.bodies, string(raw))
	if idx < len(u.errs) && u.errs[idx] != nil {
		return nil, u.errs[idx]
	}
	return json.RawMessage(`{"status":"success"}`), nil
}

func TestTransportRetriedUploadResendsFileContent(t *testing.T) {
	next := &uploadRecorder{errs: []error{statusErr(http.StatusServiceUnavailable)}}
	tr := NewTransport(next, NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
	}))

	form := &ports.Form{}
	form.AddFile("file", "notes.txt", strings.NewReader("hello world"))
	form.AddField("title", "Notes")

	if _, err := tr.Do(context.Background(), ports.Call{Service: ports.ServiceRAG, Form: form}); err != nil {
		t.Fatalf("expected upload to succeed after retry, got %v", err)
	}
	if len(next.bodies) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(next.bodies))
	}
	for i, body := range next.bodies {
		if body != "hello world" {
			t.Fatalf("attempt %d sent %q", i+1, body)
		}
	}
}

func TestTransportUsesCallBreakerKey(t *testing.T) {
	next := &scriptedTransport{errs: []error{statusErr(http.StatusInternalServerError), statusErr(http.StatusInternalServerError)}}
	executor := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})
	tr := NewTransport(next, executor)

	detail := ports.Call{Service: ports.ServiceRAG, Breaker: "rag-detail"}
	for i := 0; i < 2; i++ {
		if _, err := tr.Do(context.Background(), detail); !errors.Is(err, domain.ErrHTTPStatus) {
			t.Fatalf("expected status error, got %v", err)
		}
	}

	if _, err := tr.Do(context.Background(), ports.Call{Service: ports.ServiceRAG}); err != nil {
		t.Fatalf("listing must not share the detail breaker, got %v", err)
	}
	states := map[string]string{}
	for _, s := range executor.States() {
		states[s.Service] = s.State
	}
	if states["rag-detail"] != "open" || states["rag"] != "closed" {
		t.Fatalf("unexpected breaker states: %+v", states)
	}
}
