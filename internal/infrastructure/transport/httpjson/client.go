package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
	"github.com/kirillkom/ragdesk/internal/observability/metrics"
)

const maxErrorBody = 4096

type Options struct {
	AuthBaseURL string
	RAGBaseURL  string
	Timeout     time.Duration

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	Limiter    *RateLimiter
	Metrics    *metrics.ClientMetrics
	Logger     *slog.Logger
}

// Client is the single place where backend requests are built and their
// failures normalized into domain.TransportError values.
type Client struct {
	bases      map[ports.Service]string
	httpClient *http.Client
	limiter    *RateLimiter
	metrics    *metrics.ClientMetrics
	logger     *slog.Logger
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		bases: map[ports.Service]string{
			ports.ServiceAuth: strings.TrimRight(opts.AuthBaseURL, "/"),
			ports.ServiceRAG:  strings.TrimRight(opts.RAGBaseURL, "/"),
		},
		httpClient: httpClient,
		limiter:    opts.Limiter,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

func (c *Client) Do(ctx context.Context, call ports.Call) (json.RawMessage, error) {
	operation := call.Operation
	if operation == "" {
		operation = strings.ToLower(call.Method) + " " + call.Path
	}

	started := time.Now()
	body, err := c.do(ctx, call, operation)
	c.metrics.ObserveTransport(operation, time.Since(started), err)
	if err != nil {
		c.logger.Debug("transport_call_failed", "operation", operation, "error", err)
	}
	return body, err
}

func (c *Client) do(ctx context.Context, call ports.Call, operation string) (json.RawMessage, error) {
	if call.JSON != nil && call.Form != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, operation, errors.New("json and multipart bodies are mutually exclusive"))
	}

	target, err := c.resolveURL(call)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, operation, err)
	}

	reqBody, contentType, err := encodeBody(call)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, operation, err)
	}

	method := call.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, operation, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.TransportError{
			Kind:      domain.ErrNetworkUnavailable,
			Operation: operation,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests && c.limiter != nil {
			c.limiter.RecordRateLimitError(parseRetryAfter(resp.Header.Get("Retry-After")))
		}
		return nil, formatHTTPStatusError(operation, resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.TransportError{
			Kind:      domain.ErrNetworkUnavailable,
			Operation: operation,
			Err:       fmt.Errorf("read response: %w", err),
		}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, &domain.TransportError{
			Kind:       domain.ErrMalformedResponse,
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response body is not valid json (%d bytes)", len(raw)),
		}
	}
	return json.RawMessage(raw), nil
}

func (c *Client) resolveURL(call ports.Call) (string, error) {
	path := call.Path
	var target string
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		target = path
	} else {
		base, ok := c.bases[call.Service]
		if !ok || base == "" {
			return "", fmt.Errorf("no base url configured for service %q", call.Service)
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		target = base + path
	}
	if len(call.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + call.Query.Encode()
	}
	return target, nil
}

func encodeBody(call ports.Call) (io.Reader, string, error) {
	switch {
	case call.Form != nil:
		return encodeMultipart(call.Form)
	case call.JSON != nil:
		payload, err := json.Marshal(call.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("marshal request: %w", err)
		}
		return bytes.NewReader(payload), "application/json", nil
	default:
		return nil, "", nil
	}
}
