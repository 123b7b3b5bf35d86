package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"propulsores/internal/config"
)

const (
	ServiceName = "propulsores-dashboard"
	MeterName   = "propulsores"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *promclient.Registry
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns metrics on, tracing off.
func DefaultOTelConfig() *OTelConfig {
	return OTelConfigFrom(config.Default().Telemetry)
}

// OTelConfigFrom maps the telemetry section of the application config.
func OTelConfigFrom(t config.TelemetryConfig) *OTelConfig {
	env := t.Environment
	if env == "" {
		env = "development"
	}
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: config.AppVersion,
		Environment:    env,
		TraceExporter:  t.TraceExporter,
		EnableMetrics:  t.EnableMetrics,
		EnableTracing:  t.EnableTracing,
		SampleRatio:    t.SampleRatio,
	}
}

// InitializeOTel sets up the global tracer and meter providers.
//
// Metrics are exported through a dedicated Prometheus registry, which also
// carries the Go runtime and process collectors; PrometheusHTTP serves it.
// When metrics are disabled Meter is a no-op meter.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{
		Logger: logger,
		Tracer: otel.Tracer(MeterName),
		Meter:  otel.Meter(MeterName),
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	switch cfg.TraceExporter {
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		exporter = exp
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	reg := promclient.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return fmt.Errorf("register go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return fmt.Errorf("register process collector: %w", err)
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	providers.Registry = reg
	providers.PrometheusHTTP = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	otel.SetMeterProvider(mp)

	providers.Logger.DebugContext(ctx, "metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// Shutdown flushes and stops the providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("opentelemetry shutdown: %w", err)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// DashboardMetrics holds the dashboard's instruments. It satisfies the
// dataset package's Recorder interface.
type DashboardMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	SourceFetchesTotal  metric.Int64Counter
	SourceFetchDuration metric.Float64Histogram
	SourceRowsFetched   metric.Int64Counter
	DatasetLoadsTotal   metric.Int64Counter
	DatasetLoadDuration metric.Float64Histogram
	CacheRequestsTotal  metric.Int64Counter
	ExportsTotal        metric.Int64Counter
	CalendarErrorsTotal metric.Int64Counter
}

// NewDashboardMetrics creates every instrument on meter.
func NewDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	var (
		m   DashboardMetrics
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.HTTPRequestsTotal, "http_requests_total", "Total number of HTTP requests"},
		{&m.SourceFetchesTotal, "dataset_source_fetches_total", "Spreadsheet fetches by source and outcome"},
		{&m.SourceRowsFetched, "dataset_source_rows_total", "Rows read from each spreadsheet"},
		{&m.DatasetLoadsTotal, "dataset_loads_total", "Merged dataset loads by outcome"},
		{&m.CacheRequestsTotal, "dataset_cache_requests_total", "Snapshot cache lookups by result"},
		{&m.ExportsTotal, "dashboard_exports_total", "Filtered dataset downloads by format"},
		{&m.CalendarErrorsTotal, "dashboard_calendar_errors_total", "Requests whose date range was rejected"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&m.HTTPRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds"},
		{&m.SourceFetchDuration, "dataset_source_fetch_duration_seconds", "Spreadsheet fetch duration in seconds"},
		{&m.DatasetLoadDuration, "dataset_load_duration_seconds", "Full dataset load duration in seconds"},
	}
	for _, h := range histograms {
		if *h.dst, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s")); err != nil {
			return nil, err
		}
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

func outcome(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("status", "failure")
	}
	return attribute.String("status", "success")
}

// RecordSourceFetch records one spreadsheet fetch.
func (m *DashboardMetrics) RecordSourceFetch(ctx context.Context, source string, duration time.Duration, rows int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source), outcome(err))
	m.SourceFetchesTotal.Add(ctx, 1, attrs)
	m.SourceFetchDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		m.SourceRowsFetched.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("source", source)))
	}
}

// RecordLoad records one merged load.
func (m *DashboardMetrics) RecordLoad(ctx context.Context, duration time.Duration, _ int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(outcome(err))
	m.DatasetLoadsTotal.Add(ctx, 1, attrs)
	m.DatasetLoadDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCacheHit records a fresh snapshot served from the cache.
func (m *DashboardMetrics) RecordCacheHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.CacheRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "hit")))
}

// RecordCacheMiss records a lookup that triggered or joined a load.
func (m *DashboardMetrics) RecordCacheMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.CacheRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "miss")))
}

// RecordExport records a CSV or XLSX download.
func (m *DashboardMetrics) RecordExport(ctx context.Context, format string, rows int) {
	if m == nil {
		return
	}
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
		attribute.Bool("empty", rows == 0)))
}

// RecordCalendarError records a request whose date range was rejected.
func (m *DashboardMetrics) RecordCalendarError(ctx context.Context) {
	if m == nil {
		return
	}
	m.CalendarErrorsTotal.Add(ctx, 1)
}

// RecordHTTPRequest records a finished request. route is the matched route
// pattern, not the raw path.
func (m *DashboardMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status_code", strconv.Itoa(status)),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// TrackActiveRequest increments the in-flight gauge and returns the
// matching decrement.
func (m *DashboardMetrics) TrackActiveRequest(ctx context.Context) func() {
	if m == nil {
		return func() {}
	}
	m.HTTPActiveRequests.Add(ctx, 1)
	return func() { m.HTTPActiveRequests.Add(ctx, -1) }
}

// TraceIDFromContext returns the OpenTelemetry trace ID of the active span.
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records err on the active span and marks it failed.
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the active span.
func SetSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}
