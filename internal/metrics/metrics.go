// Package metrics owns the Prometheus collectors for the car listing client.
//
// Each Metrics value carries its own registry, so a server and the tests that
// build one never collide on the global default registerer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for API calls.
const (
	OutcomeOK        = "ok"
	OutcomeUpstream  = "upstream_error"
	OutcomeTransport = "transport_error"
)

type Metrics struct {
	registry *prometheus.Registry

	APIRequests  *prometheus.CounterVec
	APIDuration  *prometheus.HistogramVec
	HTTPRequests *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carclient_api_requests_total",
			Help: "Requests sent to the cars API, by HTTP method and outcome.",
		}, []string{"method", "outcome"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carclient_api_request_duration_seconds",
			Help:    "Latency of requests to the cars API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carclient_http_requests_total",
			Help: "Requests served by the web front end, by route pattern and status.",
		}, []string{"route", "status"}),
	}
	m.registry.MustRegister(
		m.APIRequests,
		m.APIDuration,
		m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAPI records one call to the cars API. A nil receiver is a no-op so
// callers that were built without metrics need no guard.
func (m *Metrics) ObserveAPI(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(method, outcome).Inc()
	m.APIDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveHTTP records one request served by the web front end.
func (m *Metrics) ObserveHTTP(route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, status).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
