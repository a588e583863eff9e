package metric

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// RuntimeCollector reports goroutine count as a prometheus.Collector. It is
// primarily useful for catching a read-loop leak: each live Client holds
// exactly one goroutine while connected, so an unexpected climb points at
// connections that were dropped without a matching Disconnect or Close.
type RuntimeCollector struct {
	goroutines *prometheus.Desc
}

// NewRuntimeCollector creates a custom collector for process-wide runtime stats.
func NewRuntimeCollector(namespace string) *RuntimeCollector {
	return &RuntimeCollector{
		goroutines: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "runtime", "goroutines"),
			"Number of goroutines currently running in this process.",
			nil, nil,
		),
	}
}

func (c *RuntimeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.goroutines
}

func (c *RuntimeCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.goroutines, prometheus.GaugeValue, float64(runtime.NumGoroutine()))
}
