// Package otel provides OpenTelemetry metric exporter bindings for clientauth
// counters and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each clientauth
// metric and Int64ObservableGauge per histogram bucket. A single callback reads
// [clientauth.Provider.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate provider state.
package otel
