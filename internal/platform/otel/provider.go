// Package otel wires opt-in OpenTelemetry tracing for engine commands.
package otel

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// tracingEndpoint returns the collector endpoint, or "" when tracing is
// disabled. Tracing is opt-in: it requires VISAGE_OTEL_ENDPOINT to be set
// and VISAGE_OTEL_ENABLED to not be "false".
func tracingEndpoint() string {
	if strings.EqualFold(os.Getenv("VISAGE_OTEL_ENABLED"), "false") {
		return ""
	}
	return os.Getenv("VISAGE_OTEL_ENDPOINT")
}

// Setup initialises OpenTelemetry tracing for the given service. When tracing
// is disabled it returns a no-op shutdown function and registers no global
// provider. The returned shutdown flushes pending spans and should be
// deferred by the caller.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	endpoint := tracingEndpoint()
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return provider.Shutdown, nil
}
