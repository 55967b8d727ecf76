// Package telemetry configures OpenTelemetry tracing. With no
// OTEL_EXPORTER_OTLP_ENDPOINT set the global no-op tracer stays in place.
package telemetry

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/iliyamo/crowdsafe/internal/log"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "crowdsafe"

// Setup installs the OTLP/gRPC trace provider and returns its shutdown
// function. Failures are logged and leave tracing disabled.
func Setup(ctx context.Context) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return noop
	}
	l := log.WithComponent("telemetry")

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true" {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		l.Error().Err(err).Msg("otel exporter setup failed, tracing disabled")
		return noop
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(ServiceName)))
	if err != nil {
		l.Warn().Err(err).Msg("otel resource setup failed")
	}
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	l.Info().Str("endpoint", endpoint).Msg("tracing enabled")
	return provider.Shutdown
}
