package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names of an import run. A run is one SpanImport with a SpanLoad child
// per PBS file and a SpanExport child per sink.
const (
	SpanImport = "pbs.import"
	SpanLoad   = "pbs.load"
	SpanExport = "pbs.export"
)

// Span attribute keys.
const (
	KindsKey   = attribute.Key("pbs.kinds")
	KindKey    = attribute.Key("pbs.kind")
	PathKey    = attribute.Key("pbs.path")
	SinkKey    = attribute.Key("pbs.sink")
	TablesKey  = attribute.Key("pbs.tables")
	RecordsKey = attribute.Key("pbs.records")
)

func tracer() trace.Tracer {
	return otel.Tracer(scopeName)
}

// StartImport starts the root span of a run over kinds PBS files.
func StartImport(ctx context.Context, kinds int) (context.Context, trace.Span) {
	return tracer().Start(ctx, SpanImport, trace.WithAttributes(KindsKey.Int(kinds)))
}

// StartLoad starts the span of importing one PBS file. The returned logger
// carries the kind, path and the new span's IDs.
func StartLoad(ctx context.Context, kind, path string) (context.Context, trace.Span, *slog.Logger) {
	ctx, span := tracer().Start(ctx, SpanLoad,
		trace.WithAttributes(KindKey.String(kind), PathKey.String(path)))
	return ctx, span, Logger(ctx).With("kind", kind, "path", path)
}

// StartExport starts the span of writing tables to the named sink.
func StartExport(ctx context.Context, sink string, tables int) (context.Context, trace.Span) {
	return tracer().Start(ctx, SpanExport,
		trace.WithAttributes(SinkKey.String(sink), TablesKey.Int(tables)))
}

// EndSpan sets the record count on span, records err if any, and ends it.
func EndSpan(span trace.Span, records int, err error) {
	span.SetAttributes(RecordsKey.Int(records))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// traceID returns the trace ID of the span in ctx, or "" without one.
func traceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger with trace_id and span_id of the span in
// ctx attached. Without a span it is [slog.Default].
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}
