// Package prometheus renders hsgate engine metrics in the Prometheus text
// exposition format.
//
// [NewExporter] accepts an [hsgate.Engine] (or any [MetricsSource]) and
// exposes an [http.Handler]. Counters are named hsgate_*_total; the only
// histogram is hsgate_validate_latency_seconds and is present when latency
// histograms are enabled.
//
// # What this package must NOT do
//
//   - Register metrics in a global registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
