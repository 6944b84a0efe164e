package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors on a private registry and serves them on /metrics.
type Metrics struct {
	registry      *prometheus.Registry
	handler       http.Handler
	proxyRequests *prometheus.CounterVec
	proxyDuration *prometheus.HistogramVec
	exchanges     *prometheus.CounterVec
}

// NewMetrics creates and registers the gateway collectors along with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		proxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "butter",
			Name:      "proxy_requests_total",
			Help:      "Proxied requests by terminal outcome.",
		}, []string{"method", "outcome"}),
		proxyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "butter",
			Name:      "proxy_request_duration_seconds",
			Help:      "Time spent forwarding proxied requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "butter",
			Name:      "oauth_exchanges_total",
			Help:      "OAuth callback results.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.proxyRequests,
		m.proxyDuration,
		m.exchanges,
	)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveProxy records one proxied request.
func (m *Metrics) ObserveProxy(method string, outcome Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.proxyRequests.WithLabelValues(method, string(outcome)).Inc()
	m.proxyDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

// ObserveExchange records one callback result.
func (m *Metrics) ObserveExchange(result string) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(result).Inc()
}

// Routes returns the metrics endpoint.
func (m *Metrics) Routes() []Route {
	return []Route{{Method: http.MethodGet, Pattern: "/metrics"}}
}

// ServeHTTP serves the Prometheus exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}
