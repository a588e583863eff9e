package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter is a cumulative metric that only increases.
type Counter interface {
	Inc()
	Add(float64)
}

// Gauge is a metric that can go up and down.
type Gauge interface {
	Set(float64)
	Inc()
	Dec()
	Add(float64)
	Sub(float64)
}

// Registry holds the metrics a Client reports when configured with one.
type Registry struct {
	reg *prometheus.Registry

	PendingCount   Gauge
	WaitingCount   Gauge
	Submitted      Counter
	Completed      Counter
	WaitingTimeouts Counter
	ReconnectAttempts Counter
}

// NewRegistry creates a Registry backed by a dedicated prometheus.Registry
// (rather than the global DefaultRegisterer) so a process can safely run
// more than one instrumented Client without collector name collisions.
func NewRegistry(namespace string) *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		PendingCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "pending_commands",
			Help:      "Number of non-persistent commands written and awaiting a reply.",
		}),
		WaitingCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "waiting_commands",
			Help:      "Number of commands buffered locally because the connection is down or pending is full.",
		}),
		Submitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "commands_submitted_total",
			Help:      "Total commands accepted by Submit.",
		}),
		Completed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "commands_completed_total",
			Help:      "Total commands whose continuation ran to completion.",
		}),
		WaitingTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "waiting_timeouts_total",
			Help:      "Total commands that expired in the waiting queue.",
		}),
		ReconnectAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "reconnect_attempts_total",
			Help:      "Total automatic reconnection attempts made.",
		}),
	}
}

// Handler returns an HTTP handler serving this registry's metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// MustRegister adds an additional prometheus.Collector to this registry, for
// example the RuntimeCollector in collector.go.
func (r *Registry) MustRegister(c prometheus.Collector) {
	r.reg.MustRegister(c)
}
