// Package prometheus exposes a Manager's session counters, load latency histogram
// and audit drop count to Prometheus.
//
// [NewCollector] adapts a [goSession.Manager] to the client_golang Collector
// interface for applications that already run a registry. [NewPrometheusExporter]
// wraps the same Collector in a private registry and serves it through promhttp, so
// a scrape of its [http.Handler] returns only gosession_* series: one
// gosession_<event>_total counter per lifecycle event, the
// gosession_load_latency_seconds histogram (buckets, count and sum) and
// gosession_audit_dropped_total. Nothing is emitted while the manager has metrics
// disabled and no audit events were dropped.
//
// # What this package must NOT do
//
//   - Register metrics in the default Prometheus registry.
//   - Mutate manager state.
package prometheus
