package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClientMetrics covers the backend calls made by the catalog and chat use
// cases. A nil *ClientMetrics is valid and records nothing.
type ClientMetrics struct {
	registry *prometheus.Registry

	transportTotal    *prometheus.CounterVec
	transportDuration *prometheus.HistogramVec
	catalogListings   *prometheus.CounterVec
	catalogDegraded   prometheus.Counter
	chatTurns         *prometheus.CounterVec
	retrievalDegraded prometheus.Counter
}

func NewClientMetrics(registry *prometheus.Registry, service string) *ClientMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	constLabels := prometheus.Labels{"service": service}

	transportTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "ragdesk",
			Subsystem:   "transport",
			Name:        "requests_total",
			Help:        "Total backend calls by operation and outcome.",
			ConstLabels: constLabels,
		},
		[]string{"operation", "outcome"},
	)
	transportDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "ragdesk",
			Subsystem:   "transport",
			Name:        "request_duration_seconds",
			Help:        "Backend call duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"operation"},
	)
	catalogListings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "ragdesk",
			Subsystem:   "catalog",
			Name:        "listings_total",
			Help:        "Catalog listings by terminal state (paged, legacy, failed).",
			ConstLabels: constLabels,
		},
		[]string{"source"},
	)
	catalogDegraded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "ragdesk",
			Subsystem:   "catalog",
			Name:        "degraded_rows_total",
			Help:        "Legacy rows rendered without metadata because the detail fetch failed.",
			ConstLabels: constLabels,
		},
	)
	chatTurns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "ragdesk",
			Subsystem:   "chat",
			Name:        "turns_total",
			Help:        "Chat turns by composition mode and outcome.",
			ConstLabels: constLabels,
		},
		[]string{"mode", "outcome"},
	)
	retrievalDegraded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "ragdesk",
			Subsystem:   "chat",
			Name:        "retrieval_degraded_total",
			Help:        "Chat turns that continued without retrieval after a retrieval failure.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(transportTotal, transportDuration, catalogListings, catalogDegraded, chatTurns, retrievalDegraded)

	return &ClientMetrics{
		registry:          registry,
		transportTotal:    transportTotal,
		transportDuration: transportDuration,
		catalogListings:   catalogListings,
		catalogDegraded:   catalogDegraded,
		chatTurns:         chatTurns,
		retrievalDegraded: retrievalDegraded,
	}
}

func (m *ClientMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ClientMetrics) ObserveTransport(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.transportTotal.WithLabelValues(operation, outcome).Inc()
	m.transportDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *ClientMetrics) RecordCatalogListing(source string, degradedRows int) {
	if m == nil {
		return
	}
	m.catalogListings.WithLabelValues(source).Inc()
	if degradedRows > 0 {
		m.catalogDegraded.Add(float64(degradedRows))
	}
}

func (m *ClientMetrics) RecordChatTurn(mode string, failed bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "error"
	}
	m.chatTurns.WithLabelValues(mode, outcome).Inc()
}

func (m *ClientMetrics) RecordRetrievalDegraded() {
	if m == nil {
		return
	}
	m.retrievalDegraded.Inc()
}
