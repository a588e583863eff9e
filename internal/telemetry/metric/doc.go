// Package metric provides Prometheus metrics for the client and its
// demonstration CLI.
//
// It exposes metrics in Prometheus format for monitoring queue depth,
// command throughput, reconnect activity, and waiting-timeout rate:
//
//   - prometheus.go: registry and HTTP handler
//   - collector.go: a custom collector for the runtime goroutine count
//
// Registry.Handler returns the HTTP handler; mounting it at a path is left
// to the caller.
package metric
