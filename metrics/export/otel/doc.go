// Package otel publishes a Manager's session metrics through OpenTelemetry.
//
// [NewOTelExporter] registers one Int64ObservableCounter per lifecycle counter plus
// gosession_audit_dropped_total. The load latency histogram is reported as three
// observable instruments because observables cannot carry a histogram point:
// gosession_load_latency_seconds_bucket (a gauge with one point per le bound),
// gosession_load_latency_seconds_count and gosession_load_latency_seconds_sum.
// A single callback reads [goSession.Manager.MetricsSnapshot] on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate manager state.
package otel
