// Package metrics holds the Prometheus collectors exported by the fulfillment service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fulfillment"

// Transition outcomes used as the "outcome" label.
const (
	OutcomeOK                = "ok"
	OutcomeInvalidTransition = "invalid_transition"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeStageChanged      = "stage_changed"
	OutcomeNotFound          = "not_found"
	OutcomeRetryable         = "retryable"
	OutcomeError             = "error"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	ReservedUnits prometheus.Counter
	Requests      *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
	registry      *prometheus.Registry
}

// New creates the collectors and registers them, together with the Go and process
// collectors, on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "order",
			Name:      "transitions_total",
			Help:      "Order stage transitions by source, target and outcome.",
		}, []string{"from", "to", "outcome"}),
		ReservedUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "reserved_units_total",
			Help:      "Units reserved against orders.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"route"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.Transitions,
		m.ReservedUnits,
		m.Requests,
		m.Latency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTransition counts one transition attempt.
func (m *Metrics) ObserveTransition(from, to, outcome string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to, outcome).Inc()
}

// ObserveReserved adds units reserved by a successful Picking transition.
func (m *Metrics) ObserveReserved(units int) {
	if m == nil || units <= 0 {
		return
	}
	m.ReservedUnits.Add(float64(units))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.Latency.WithLabelValues(route).Observe(elapsed.Seconds())
}
