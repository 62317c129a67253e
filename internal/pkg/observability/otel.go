package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Pesokrava/park_reviewer"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount    metric.Int64Counter
	RequestDuration metric.Float64Histogram
	LikesToggled    metric.Int64Counter
	LikesReconciled metric.Int64Counter
	ImagesAttached  metric.Int64Counter
}

// Setup initializes OpenTelemetry trace and metric providers exporting over OTLP gRPC.
// With an empty endpoint the global no-op providers stay in place.
func Setup(ctx context.Context, serviceName, endpoint string) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		return errors.Join(tracerProvider.Shutdown(ctx), meterProvider.Shutdown(ctx))
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics on the global meter provider
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	likesToggled, err := meter.Int64Counter(
		"likes.toggled",
		metric.WithDescription("Number of like toggles, by resulting state"),
	)
	if err != nil {
		return nil, err
	}

	likesReconciled, err := meter.Int64Counter(
		"likes.reconciled",
		metric.WithDescription("Number of reviews whose likes_count drift was corrected"),
	)
	if err != nil {
		return nil, err
	}

	imagesAttached, err := meter.Int64Counter(
		"images.attached",
		metric.WithDescription("Number of images attached to reviews"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:    requestCount,
		RequestDuration: requestDuration,
		LikesToggled:    likesToggled,
		LikesReconciled: likesReconciled,
		ImagesAttached:  imagesAttached,
	}, nil
}

// NoopMetrics returns metrics backed by a no-op meter, for tests and tools
func NoopMetrics() *Metrics {
	m, _ := InitMetrics()
	return m
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, spanName, opts...)
}

// RecordError records an error in the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// RecordRequestMetric records request count and duration
func (m *Metrics) RecordRequestMetric(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	)
	m.RequestCount.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordToggle counts a like toggle by its resulting state
func (m *Metrics) RecordToggle(ctx context.Context, state string) {
	if m == nil {
		return
	}
	m.LikesToggled.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}

// RecordReconciled counts corrected reviews
func (m *Metrics) RecordReconciled(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.LikesReconciled.Add(ctx, n)
}

// RecordImagesAttached counts attached images
func (m *Metrics) RecordImagesAttached(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ImagesAttached.Add(ctx, int64(n))
}
