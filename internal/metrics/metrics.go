// Package metrics exposes Prometheus collectors for the hero page server.
//
// All observe methods accept a nil *Metrics so components can run without
// instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hero"

// Metrics holds the server's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	pageRenders   prometheus.Counter
	renderErrors  *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	pointerEvents *prometheus.CounterVec
	sessions      prometheus.Gauge
	sseClients    prometheus.Gauge
	ingested      prometheus.Gauge
	httpDuration  *prometheus.HistogramVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pageRenders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_renders_total",
			Help:      "Hero pages rendered.",
		}),
		renderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Hero renders that failed, by reason.",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tooltip_transitions_total",
			Help:      "Tooltip state changes, by target state.",
		}, []string{"state"}),
		pointerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pointer_events_total",
			Help:      "Pointer events received, by event and whether they changed state.",
		}, []string{"event", "changed"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Mounted Hero instances.",
		}),
		sseClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Connected event stream clients.",
		}),
		ingested: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_assets",
			Help:      "Assets in the catalog after the last ingest.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.pageRenders,
		m.renderErrors,
		m.transitions,
		m.pointerEvents,
		m.sessions,
		m.sseClients,
		m.ingested,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRender counts a page render, failed ones by reason
func (m *Metrics) ObserveRender(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		m.pageRenders.Inc()
		return
	}
	m.renderErrors.WithLabelValues(reason).Inc()
}

// ObserveTransition counts a tooltip state change
func (m *Metrics) ObserveTransition(state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state).Inc()
}

// ObservePointer counts a pointer event
func (m *Metrics) ObservePointer(event string, changed bool) {
	if m == nil {
		return
	}
	m.pointerEvents.WithLabelValues(event, strconv.FormatBool(changed)).Inc()
}

// SetSessions records the number of mounted sessions
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// SetClients records the number of SSE clients
func (m *Metrics) SetClients(n int) {
	if m == nil {
		return
	}
	m.sseClients.Set(float64(n))
}

// SetCatalogSize records the number of catalog assets
func (m *Metrics) SetCatalogSize(n int) {
	if m == nil {
		return
	}
	m.ingested.Set(float64(n))
}

// ObserveHTTP records one request
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(d.Seconds())
}
