// Package observe instruments import runs with OpenTelemetry metrics and
// spans, and ties log lines to the span they were written in.
//
// [InitProvider] sets up the SDK for either a one-shot run, which logs its
// counter totals on shutdown, or watch mode, which exports to Prometheus for
// the /metrics endpoint. Tests should use [NewMetrics] with their own
// [metric.MeterProvider] rather than [DefaultMetrics].
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// scopeName is the instrumentation scope of every importer meter and tracer.
const scopeName = "github.com/MrWong99/pbsimport"

// Run status attribute values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// SectionsParsed counts sections turned into records. Use with attribute:
	//   attribute.String("kind", ...)
	SectionsParsed metric.Int64Counter

	// ParseDuration tracks how long importing one PBS file takes. Use with
	// attributes:
	//   attribute.String("kind", ...), attribute.String("status", ...)
	ParseDuration metric.Float64Histogram

	// ParseErrors counts failed file imports. Use with attribute:
	//   attribute.String("kind", ...)
	ParseErrors metric.Int64Counter

	// EnumUnvalidated counts enumerated values that passed through without an
	// enumeration source. Use with attribute:
	//   attribute.String("kind", ...)
	EnumUnvalidated metric.Int64Counter

	// RecordsExported counts records written to a sink. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("sink", ...)
	RecordsExported metric.Int64Counter

	// ImportRuns counts complete pipeline runs. Use with attribute:
	//   attribute.String("status", ...)
	ImportRuns metric.Int64Counter

	// HTTPRequestDuration tracks watch-mode HTTP request time. Use with
	// attributes:
	//   attribute.String("route", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// durationBuckets defines histogram bucket boundaries (in seconds) sized for
// PBS files from a handful of sections up to a full species list.
var durationBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(scopeName)
	var err error
	met := &Metrics{}

	if met.SectionsParsed, err = m.Int64Counter("pbs.sections.parsed",
		metric.WithDescription("Total PBS sections turned into records by kind."),
	); err != nil {
		return nil, err
	}
	if met.ParseDuration, err = m.Float64Histogram("pbs.parse.duration",
		metric.WithDescription("Latency of importing one PBS file by kind and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ParseErrors, err = m.Int64Counter("pbs.parse.errors",
		metric.WithDescription("Total failed PBS file imports by kind."),
	); err != nil {
		return nil, err
	}
	if met.EnumUnvalidated, err = m.Int64Counter("pbs.enum.unvalidated",
		metric.WithDescription("Total enumerated values accepted without validation by kind."),
	); err != nil {
		return nil, err
	}
	if met.RecordsExported, err = m.Int64Counter("pbs.records.exported",
		metric.WithDescription("Total records written by kind and sink."),
	); err != nil {
		return nil, err
	}
	if met.ImportRuns, err = m.Int64Counter("pbs.import.runs",
		metric.WithDescription("Total import pipeline runs by status."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("pbs.http.request.duration",
		metric.WithDescription("Watch-mode HTTP request latency by route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordParse records the outcome of importing one file of kind: its
// duration, the number of sections parsed and, when err is non-nil, an
// error count.
func (m *Metrics) RecordParse(ctx context.Context, kind string, sections int, d time.Duration, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
		m.ParseErrors.Add(ctx, 1, metric.WithAttributes(Attr("kind", kind)))
	} else {
		m.SectionsParsed.Add(ctx, int64(sections), metric.WithAttributes(Attr("kind", kind)))
	}
	m.ParseDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(
			Attr("kind", kind),
			Attr("status", status),
		),
	)
}

// RecordUnvalidated records one enumerated value of kind accepted without
// validation.
func (m *Metrics) RecordUnvalidated(ctx context.Context, kind string) {
	m.EnumUnvalidated.Add(ctx, 1, metric.WithAttributes(Attr("kind", kind)))
}

// RecordExport records n records of kind written to sink.
func (m *Metrics) RecordExport(ctx context.Context, sink, kind string, n int) {
	m.RecordsExported.Add(ctx, int64(n),
		metric.WithAttributes(
			Attr("kind", kind),
			Attr("sink", sink),
		),
	)
}

// RecordRun records one complete pipeline run.
func (m *Metrics) RecordRun(ctx context.Context, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.ImportRuns.Add(ctx, 1, metric.WithAttributes(Attr("status", status)))
}
