package main

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	otelexport "github.com/hsgate/hsgate/metrics/export/otel"
)

const meterName = "github.com/hsgate/hsgate"

var errExporterShutdown = errors.New("metrics exporter is shut down")

// otelMetrics owns the process MeterProvider installed for
// HSGATE_OTEL_METRICS. Engine counters are read on each periodic collection
// and written as one structured log entry.
type otelMetrics struct {
	provider *sdkmetric.MeterProvider
	exporter *otelexport.Exporter
}

func setupOTelMetrics(source otelexport.MetricsSource, logger logrus.FieldLogger, interval time.Duration) (*otelMetrics, error) {
	reader := sdkmetric.NewPeriodicReader(newLogExporter(logger), sdkmetric.WithInterval(interval))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	exporter, err := otelexport.NewExporter(otel.Meter(meterName), source)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}
	return &otelMetrics{provider: provider, exporter: exporter}, nil
}

// shutdown exports a final collection and stops the reader.
func (m *otelMetrics) shutdown(ctx context.Context) error {
	flushErr := m.provider.ForceFlush(ctx)
	closeErr := m.exporter.Close()
	return errors.Join(flushErr, closeErr, m.provider.Shutdown(ctx))
}

// logExporter is an sdkmetric.Exporter that writes integer data points to
// logrus, keyed by instrument name plus encoded attributes.
type logExporter struct {
	logger   logrus.FieldLogger
	shutdown atomic.Bool
}

func newLogExporter(logger logrus.FieldLogger) *logExporter {
	return &logExporter{logger: logger}
}

func (e *logExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(k)
}

func (e *logExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func (e *logExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	if e.shutdown.Load() {
		return errExporterShutdown
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fields := logrus.Fields{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					fields[pointKey(m.Name, dp.Attributes)] = dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					fields[pointKey(m.Name, dp.Attributes)] = dp.Value
				}
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	e.logger.WithFields(fields).Info("metrics")
	return nil
}

func (e *logExporter) ForceFlush(ctx context.Context) error {
	return ctx.Err()
}

func (e *logExporter) Shutdown(ctx context.Context) error {
	e.shutdown.Store(true)
	return ctx.Err()
}

func pointKey(name string, attrs attribute.Set) string {
	if attrs.Len() == 0 {
		return name
	}
	return name + "{" + attrs.Encoded(attribute.DefaultEncoder()) + "}"
}
