package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aaravmahajanofficial/sales-savvy/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type ShutdownFunc func(ctx context.Context) error

// InitTracer installs the global tracer provider and propagator. Without an
// exporter endpoint tracing stays disabled and the returned shutdown is a no-op.
func InitTracer(ctx context.Context, cfg *config.Config) (ShutdownFunc, error) {

	if cfg.Otel.ExporterEndpoint == "" {
		slog.Info("Tracing disabled, no exporter endpoint configured")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Otel.ExporterEndpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.Otel.ServiceName),
		semconv.DeploymentEnvironment(cfg.Env),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Otel.SamplerRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	slog.Info("Tracing enabled",
		slog.String("endpoint", cfg.Otel.ExporterEndpoint),
		slog.Float64("sampler_ratio", cfg.Otel.SamplerRatio),
	)

	return tp.Shutdown, nil
}
