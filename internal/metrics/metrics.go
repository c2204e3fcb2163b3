package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors of the service. A nil *Metrics is valid and
// records nothing, so components can be built without a registry in tests.
type Metrics struct {
	lookups          *prometheus.CounterVec
	registryRequests *prometheus.CounterVec
	greetings        *prometheus.CounterVec
	exports          *prometheus.CounterVec
	exportDuration   *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickethub",
			Name:      "lookups_total",
			Help:      "Registry lookups by outcome",
		}, []string{"outcome"}),
		registryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickethub",
			Name:      "registry_requests_total",
			Help:      "Registry source fetches by source and status",
		}, []string{"source", "status"}),
		greetings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickethub",
			Name:      "greetings_total",
			Help:      "Greetings served, generated or fallback",
		}, []string{"result"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickethub",
			Name:      "exports_total",
			Help:      "Ticket exports by format and status",
		}, []string{"format", "status"}),
		exportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tickethub",
			Name:      "export_duration_seconds",
			Help:      "Time spent rendering and encoding a ticket",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"format"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickethub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status",
		}, []string{"method", "status"}),
	}
	reg.MustRegister(
		m.lookups, m.registryRequests, m.greetings,
		m.exports, m.exportDuration, m.httpRequests,
	)
	return m
}

func (m *Metrics) Lookup(outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RegistryRequest(source, status string) {
	if m == nil {
		return
	}
	m.registryRequests.WithLabelValues(source, status).Inc()
}

func (m *Metrics) Greeting(fallback bool) {
	if m == nil {
		return
	}
	result := "generated"
	if fallback {
		result = "fallback"
	}
	m.greetings.WithLabelValues(result).Inc()
}

func (m *Metrics) Export(format, status string, seconds float64) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format, status).Inc()
	m.exportDuration.WithLabelValues(format).Observe(seconds)
}

func (m *Metrics) HTTPRequest(method, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, status).Inc()
}
