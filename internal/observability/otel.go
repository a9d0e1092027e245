// Package observability wires OpenTelemetry tracing and metrics for the
// client: bootstrap outcomes, wizard stage durations, quota denials, and
// gateway request counts.
package observability

import (
	"context"
	"fmt"
	"time"

	"rezzy/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics holds all custom metrics for the client.
type Metrics struct {
	// Bootstrap metrics
	BootstrapDuration metric.Float64Histogram
	BootstrapOutcomes metric.Int64Counter

	// Wizard metrics
	StageDuration metric.Float64Histogram

	// Plan gate metrics
	QuotaDenials metric.Int64Counter

	// Gateway metrics
	GatewayRequests metric.Int64Counter
	GatewayErrors   metric.Int64Counter
}

// Manager manages OpenTelemetry setup.
type Manager struct {
	config         config.ObservabilityConfig
	fullConfig     *config.Config
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
}

// NewManager creates a new observability manager. A disabled config yields
// an inert manager whose recorders are no-ops.
func NewManager(fullConfig *config.Config) (*Manager, error) {
	obsConfig := fullConfig.Observability
	if !obsConfig.Enabled {
		return &Manager{config: obsConfig, fullConfig: fullConfig}, nil
	}

	m := &Manager{
		config:        obsConfig,
		fullConfig:    fullConfig,
		shutdownFuncs: make([]func(context.Context) error, 0),
	}

	if err := m.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return m, nil
}

// initTracing sets up OpenTelemetry tracing.
func (m *Manager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	if m.config.Console.Enabled {
		// Console exporter for development
		opts := []stdouttrace.Option{}
		if m.config.Console.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	} else if m.config.OTLP.Enabled {
		// OTLP exporter for production
		exporter, err = m.createOTLPExporter()
	} else {
		// No-op exporter when no production exporter is configured
		exporter = &noOpSpanExporter{}
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := m.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(m.config.Tracing.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	m.tracerProvider = tp
	m.shutdownFuncs = append(m.shutdownFuncs, tp.Shutdown)

	return nil
}

// initMetrics sets up OpenTelemetry metrics.
func (m *Manager) initMetrics() error {
	readers, err := m.setupMetricReaders()
	if err != nil {
		return err
	}

	res, err := m.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	meterProviderOptions := []sdkmetric.Option{
		sdkmetric.WithResource(res),
	}
	for _, reader := range readers {
		meterProviderOptions = append(meterProviderOptions, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(meterProviderOptions...)

	otel.SetMeterProvider(mp)
	m.meterProvider = mp
	m.shutdownFuncs = append(m.shutdownFuncs, mp.Shutdown)

	return m.initCustomMetrics()
}

// setupMetricReaders sets up all metric readers based on configuration.
func (m *Manager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if m.config.Console.Enabled {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(m.metricsCollectionInterval())))
	}

	if m.config.OTLP.Enabled {
		otlpReader, err := m.createOTLPMetricsReader()
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, otlpReader)
	}

	if m.config.Prometheus.Enabled {
		prometheusReader, prometheusMux, err := SetupPrometheusExporter(m.config.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		if prometheusReader != nil {
			readers = append(readers, prometheusReader)
			if err := StartPrometheusServer(prometheusMux, m.config.Prometheus.Port); err != nil {
				return nil, fmt.Errorf("failed to start Prometheus server: %w", err)
			}
		}
	}

	// If no readers configured, use manual reader as fallback
	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}

	return readers, nil
}

// createResource creates the OpenTelemetry resource.
func (m *Manager) createResource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(m.config.ServiceName),
			semconv.ServiceVersion(m.config.ServiceVersion),
			attribute.String("service.instance.id", m.config.ServiceInstance),
		),
	)
}

// initCustomMetrics creates all custom metrics.
func (m *Manager) initCustomMetrics() error {
	meter := m.meterProvider.Meter(m.config.ServiceName)
	m.metrics = &Metrics{}

	var err error

	m.metrics.BootstrapDuration, err = meter.Float64Histogram(
		"rezzy_bootstrap_duration_seconds",
		metric.WithDescription("Time spent in one bootstrap attempt"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create bootstrap duration metric: %w", err)
	}

	m.metrics.BootstrapOutcomes, err = meter.Int64Counter(
		"rezzy_bootstrap_outcomes_total",
		metric.WithDescription("Bootstrap attempt outcomes by terminal phase"),
	)
	if err != nil {
		return fmt.Errorf("failed to create bootstrap outcomes metric: %w", err)
	}

	m.metrics.StageDuration, err = meter.Float64Histogram(
		"rezzy_wizard_stage_duration_seconds",
		metric.WithDescription("Time spent running one wizard stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create stage duration metric: %w", err)
	}

	m.metrics.QuotaDenials, err = meter.Int64Counter(
		"rezzy_quota_denials_total",
		metric.WithDescription("Actions blocked by the plan gate or backend quota"),
	)
	if err != nil {
		return fmt.Errorf("failed to create quota denials metric: %w", err)
	}

	m.metrics.GatewayRequests, err = meter.Int64Counter(
		"rezzy_gateway_requests_total",
		metric.WithDescription("Total backend API requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create gateway requests metric: %w", err)
	}

	m.metrics.GatewayErrors, err = meter.Int64Counter(
		"rezzy_gateway_errors_total",
		metric.WithDescription("Backend API requests that failed"),
	)
	if err != nil {
		return fmt.Errorf("failed to create gateway errors metric: %w", err)
	}

	return nil
}

// GetMetrics returns the metrics instance.
func (m *Manager) GetMetrics() *Metrics {
	if m.metrics == nil {
		return &Metrics{} // Return empty metrics if not initialized
	}
	return m.metrics
}

// Tracer returns a tracer for the service.
func (m *Manager) Tracer(name string) oteltrace.Tracer {
	if !m.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown gracefully shuts down all observability components.
func (m *Manager) Shutdown(ctx context.Context) error {
	for _, shutdown := range m.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RecordBootstrapOutcome implements the bootstrap machine's recorder.
func (m *Metrics) RecordBootstrapOutcome(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	if m.BootstrapOutcomes != nil {
		m.BootstrapOutcomes.Add(ctx, 1, attrs)
	}
	if m.BootstrapDuration != nil {
		m.BootstrapDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// RecordStageDuration implements the wizard's recorder.
func (m *Metrics) RecordStageDuration(ctx context.Context, flow, stage, outcome string, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("flow", flow),
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	}
	if m.StageDuration != nil {
		m.StageDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	}
	if outcome == "quota_denied" && m.QuotaDenials != nil {
		m.QuotaDenials.Add(ctx, 1, metric.WithAttributes(
			attribute.String("flow", flow),
			attribute.String("stage", stage)))
	}
}

// RecordGatewayRequest counts one backend API request.
func (m *Metrics) RecordGatewayRequest(ctx context.Context, operation string, err error) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil))
	if m.GatewayRequests != nil {
		m.GatewayRequests.Add(ctx, 1, attrs)
	}
	if err != nil && m.GatewayErrors != nil {
		m.GatewayErrors.Add(ctx, 1, attrs)
	}
}

// No-op exporter for when no production exporter is configured
type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

// createOTLPExporter creates an OTLP HTTP trace exporter.
func (m *Manager) createOTLPExporter() (trace.SpanExporter, error) {
	otlpConfig := m.config.OTLP

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(otlpConfig.Endpoint),
	}

	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	return exporter, nil
}

// createOTLPMetricsReader creates an OTLP HTTP metrics reader.
func (m *Manager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	otlpConfig := m.config.OTLP

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint),
	}

	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	return sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithInterval(m.metricsCollectionInterval())), nil
}

// metricsCollectionInterval returns the configured metrics collection interval.
func (m *Manager) metricsCollectionInterval() time.Duration {
	if m.config.Metrics.CollectionInterval > 0 {
		return m.config.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
