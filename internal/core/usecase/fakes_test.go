package usecase

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kirillkom/ragdesk/internal/core/ports"
)

type transportResponse struct {
	body string
	err  error
}

// routeTransport answers calls by path and records them in order.
type routeTransport struct {
	mu     sync.Mutex
	routes map[string]func(call ports.Call) transportResponse
	calls  []ports.Call
}

func newRouteTransport() *routeTransport {
	return &routeTransport{routes: map[string]func(ports.Call) transportResponse{}}
}

func (f *routeTransport) on(path string, handler func(call ports.Call) transportResponse) {
	f.routes[path] = handler
}

func (f *routeTransport) reply(path, body string) {
	f.on(path, func(ports.Call) transportResponse { return transportResponse{body: body} })
}

func (f *routeTransport) fail(path string, err error) {
	f.on(path, func(ports.Call) transportResponse { return transportResponse{err: err} })
}

func (f *routeTransport) Do(_ context.Context, call ports.Call) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	handler, ok := f.routes[call.Path]
	f.mu.Unlock()
	if !ok {
		return nil, errUnrouted(call.Path)
	}
	resp := handler(call)
	if resp.err != nil {
		return nil, resp.err
	}
	return json.RawMessage(resp.body), nil
}

func (f *routeTransport) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		out = append(out, call.Path)
	}
	return out
}

func (f *routeTransport) callsTo(path string) []ports.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.Call
	for _, call := range f.calls {
		if call.Path == path {
			out = append(out, call)
		}
	}
	return out
}

type errUnrouted string

func (e errUnrouted) Error() string { return "no fake route for " + string(e) }

type recorderFake struct {
	listings      []string
	degradedRows  int
	chatModes     []string
	failedTurns   int
	degradedTurns int
}

func (r *recorderFake) RecordCatalogListing(source string, degradedRows int) {
	r.listings = append(r.listings, source)
	r.degradedRows += degradedRows
}

func (r *recorderFake) RecordChatTurn(mode string, failed bool) {
	r.chatModes = append(r.chatModes, mode)
	if failed {
		r.failedTurns++
	}
}

func (r *recorderFake) RecordRetrievalDegraded() { r.degradedTurns++ }
