package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/Patientrecordanonymizationdesign"

// Metrics holds all application metrics
type Metrics struct {
	RecordsProcessed    metric.Int64Counter
	RecordsExcluded     metric.Int64Counter
	RecordsSuppressed   metric.Int64Counter
	ProvenanceSubmitted metric.Int64Counter
	PipelineDuration    metric.Float64Histogram
}

// Setup initializes OpenTelemetry trace and metric providers
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
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
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Minute)); err != nil {
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		return meterProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes pipeline metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	recordsProcessed, err := meter.Int64Counter(
		"pipeline.records.processed",
		metric.WithDescription("Number of records that completed storage anonymization"),
	)
	if err != nil {
		return nil, err
	}

	recordsExcluded, err := meter.Int64Counter(
		"pipeline.records.excluded",
		metric.WithDescription("Number of records excluded for missing required attributes"),
	)
	if err != nil {
		return nil, err
	}

	recordsSuppressed, err := meter.Int64Counter(
		"pipeline.records.suppressed",
		metric.WithDescription("Number of records suppressed by k-anonymity enforcement"),
	)
	if err != nil {
		return nil, err
	}

	provenanceSubmitted, err := meter.Int64Counter(
		"pipeline.provenance.submitted",
		metric.WithDescription("Number of provenance records submitted to the ledger"),
	)
	if err != nil {
		return nil, err
	}

	pipelineDuration, err := meter.Float64Histogram(
		"pipeline.batch.duration",
		metric.WithDescription("Batch processing duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RecordsProcessed:    recordsProcessed,
		RecordsExcluded:     recordsExcluded,
		RecordsSuppressed:   recordsSuppressed,
		ProvenanceSubmitted: provenanceSubmitted,
		PipelineDuration:    pipelineDuration,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// RecordBatchMetrics records the outcome counters for one processed batch
func RecordBatchMetrics(ctx context.Context, metrics *Metrics, hospitalID string, processed, excluded, suppressed, submitted int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("hospital_id", hospitalID))

	metrics.RecordsProcessed.Add(ctx, int64(processed), attrs)
	metrics.RecordsExcluded.Add(ctx, int64(excluded), attrs)
	metrics.RecordsSuppressed.Add(ctx, int64(suppressed), attrs)
	metrics.ProvenanceSubmitted.Add(ctx, int64(submitted), attrs)
	metrics.PipelineDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}
