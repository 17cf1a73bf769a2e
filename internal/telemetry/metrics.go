// Package telemetry owns polybot's Prometheus metrics and OpenTelemetry
// tracer setup.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "polybot"

// ServiceName is the service registry name under which the *Metrics is
// shared between modules.
const ServiceName = "telemetry.metrics"

// Metrics holds the collectors recorded by the bot. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	updates    *prometheus.CounterVec
	transforms *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	errors     *prometheus.CounterVec
}

// NewMetrics creates a Metrics with its own registry, including the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Inbound chat updates by kind.",
		}, []string{"kind"}),
		transforms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transforms_total",
			Help:      "Image transforms by command and result.",
		}, []string{"command", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_duration_seconds",
			Help:      "Wall time of load, transform and save for one photo.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"command"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failures by pipeline stage.",
		}, []string{"stage"}),
	}
	m.registry.MustRegister(
		m.updates, m.transforms, m.duration, m.errors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordUpdate counts one inbound update of the given kind ("photo", "text", ...).
func (m *Metrics) RecordUpdate(kind string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
}

// RecordTransform counts one transform attempt and its duration.
func (m *Metrics) RecordTransform(command string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.transforms.WithLabelValues(command, result).Inc()
	m.duration.WithLabelValues(command).Observe(d.Seconds())
}

// RecordError counts a failure at stage ("download", "decode", "upload", ...).
func (m *Metrics) RecordError(stage string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(stage).Inc()
}
