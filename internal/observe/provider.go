package observe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ModeKey is the resource attribute telling one-shot runs from watch mode.
const ModeKey = attribute.Key("pbsimport.mode")

// ProviderConfig configures the OpenTelemetry SDK for one importer process.
type ProviderConfig struct {
	// ServiceName is the service name reported in telemetry. Default: "pbsimport".
	ServiceName string

	// ServiceVersion is the service version reported in telemetry.
	ServiceVersion string

	// Watch selects the long-running mode. Metrics then go to a Prometheus
	// exporter registered with Registerer, for /metrics to serve. A one-shot
	// run has nobody scraping it: metrics are held by a manual reader and
	// [Provider.Shutdown] logs the run's counter totals instead.
	Watch bool

	// Registerer receives the Prometheus collectors in watch mode. Nil
	// means the default Prometheus registry.
	Registerer prometheus.Registerer

	// TraceExporter is an optional span exporter. When nil, spans are
	// recorded but not exported.
	TraceExporter sdktrace.SpanExporter
}

// Provider owns the SDK providers installed by [InitProvider].
type Provider struct {
	// Metrics are the importer instruments bound to this provider's meters.
	Metrics *Metrics

	meters  *sdkmetric.MeterProvider
	tracers *sdktrace.TracerProvider
	reader  *sdkmetric.ManualReader // one-shot mode only
}

// InitProvider builds the meter and tracer providers for cfg and registers
// them as the global OTel providers.
func InitProvider(_ context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "pbsimport"
	}
	mode := "oneshot"
	if cfg.Watch {
		mode = "watch"
	}

	// Schemaless, so it merges with the SDK default whatever semconv
	// version that was built against.
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		ModeKey.String(mode),
	))
	if err != nil {
		return nil, fmt.Errorf("observe: build resource: %w", err)
	}

	p := &Provider{}
	var reader sdkmetric.Reader
	if cfg.Watch {
		var opts []promexporter.Option
		if cfg.Registerer != nil {
			opts = append(opts, promexporter.WithRegisterer(cfg.Registerer))
		}
		exp, err := promexporter.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("observe: prometheus exporter: %w", err)
		}
		reader = exp
	} else {
		p.reader = sdkmetric.NewManualReader()
		reader = p.reader
	}
	p.meters = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.TraceExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(cfg.TraceExporter))
	}
	p.tracers = sdktrace.NewTracerProvider(tpOpts...)

	if p.Metrics, err = NewMetrics(p.meters); err != nil {
		return nil, fmt.Errorf("observe: create metrics: %w", err)
	}
	otel.SetMeterProvider(p.meters)
	otel.SetTracerProvider(p.tracers)
	return p, nil
}

// Shutdown flushes and closes both providers. In one-shot mode it first
// logs the totals of every importer counter.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.reader != nil {
		var rm metricdata.ResourceMetrics
		if err := p.reader.Collect(ctx, &rm); err != nil {
			errs = append(errs, fmt.Errorf("observe: collect metrics: %w", err))
		} else {
			logTotals(rm)
		}
	}
	errs = append(errs, p.meters.Shutdown(ctx), p.tracers.Shutdown(ctx))
	return errors.Join(errs...)
}

// logTotals logs the sum over all attribute sets of each importer counter.
func logTotals(rm metricdata.ResourceMetrics) {
	var attrs []slog.Attr
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != scopeName {
			continue
		}
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			attrs = append(attrs, slog.Int64(m.Name, total))
		}
	}
	if len(attrs) > 0 {
		slog.LogAttrs(context.Background(), slog.LevelInfo, "import totals", attrs...)
	}
}
