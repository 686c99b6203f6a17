package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/getmentor/getmentor-escrow/config"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"go.uber.org/zap"
)

const (
	exportSetupTimeout = 10 * time.Second
	tracerName         = "github.com/getmentor/getmentor-escrow"
)

var tracer trace.Tracer

// InitTracer installs the global OTLP tracer provider. An empty exporter endpoint turns tracing off.
func InitTracer(obs config.ObservabilityConfig, environment string) (func(context.Context) error, error) {
	if obs.AlloyEndpoint == "" {
		logger.Info("Tracing disabled: O11Y_EXPORTER_ENDPOINT not set")
		return func(context.Context) error { return nil }, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), exportSetupTimeout)
	defer cancel()

	// Alloy sits on the internal network without TLS
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(obs.AlloyEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(obs, environment)...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Export failures must not block ledger writes
	bsp := sdktrace.NewBatchSpanProcessor(exporter,
		sdktrace.WithBatchTimeout(2*time.Second),
		sdktrace.WithExportTimeout(5*time.Second),
		sdktrace.WithMaxQueueSize(2048),
		sdktrace.WithMaxExportBatchSize(512),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bsp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(obs.TraceSampleRatio)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracer = tp.Tracer(tracerName)

	logger.Info("OpenTelemetry tracer initialized",
		zap.String("service", obs.ServiceName),
		zap.String("endpoint", obs.AlloyEndpoint),
		zap.Float64("sample_ratio", obs.TraceSampleRatio),
	)

	return tp.Shutdown, nil
}

func resourceAttributes(obs config.ObservabilityConfig, environment string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(obs.ServiceName),
		attribute.String("deployment.environment.name", environment),
	}
	if obs.ServiceNamespace != "" {
		attrs = append(attrs, semconv.ServiceNamespace(obs.ServiceNamespace))
	}
	if obs.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(obs.ServiceVersion))
	}
	if obs.ServiceInstanceID != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(obs.ServiceInstanceID))
	}
	return attrs
}

// newSampler honours upstream decisions and samples root spans by ratio
func newSampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// Tracer returns the global tracer instance
func Tracer() trace.Tracer {
	return tracer
}

// StartSpan starts a new span with the given name
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		// Return no-op span if tracer not initialized
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName)
}

// EndWithError records the outcome of a ledger operation on span.
// Rejections carry their kind and are not marked as span errors.
func EndWithError(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	if kind := apperrors.KindOf(err); kind != "" {
		span.SetAttributes(attribute.String("ledger.rejection", string(kind)))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
