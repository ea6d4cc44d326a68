// Package prometheus provides Prometheus collectors for clientauth metrics.
//
// [NewPrometheusExporter] accepts a [clientauth.Provider] and exposes an [http.Handler]
// that renders all clientauth counters and histograms in Prometheus text exposition
// format. Counter names are prefixed clientauth_*_total; the single histogram is
// clientauth_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate provider state.
package prometheus
