// Package otel bridges hsgate engine metrics to OpenTelemetry.
//
// [NewExporter] registers one observable counter per engine counter and, when
// latency histograms are enabled, cumulative bucket gauges labelled with
// "le". Values are pulled from the engine on each collection, so the hot
// path never calls into OTel.
//
// # What this package must NOT do
//
//   - Set a global MeterProvider. Callers pass a Meter.
//   - Mutate engine state.
package otel
