// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tenantgate"

// Metrics holds the HTTP collectors and the registry they live in.
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New registers the collectors. tenantPools reports how many tenant clients
// are cached.
func New(tenantPools func() int) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Count of HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),

		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of HTTP request latency.",
			Buckets:   prometheus.ExponentialBuckets(1e-3, 4, 8),
		}, []string{"method", "route"}),

		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.Requests,
		m.Latency,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tenant",
			Name:      "pools",
			Help:      "Number of tenant database clients currently cached.",
		}, func() float64 { return float64(tenantPools()) }),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
