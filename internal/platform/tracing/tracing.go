// Package tracing configures the OpenTelemetry tracer provider with an
// OTLP/HTTP exporter. The collector endpoint and headers come from the
// environment; with no endpoint configured spans stay in-process only.
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config holds tracer provider settings.
type Config struct {
	ServiceName string
	Environment string
	// Endpoint is the OTLP base URL, e.g. https://collector.example.com.
	// Empty disables export.
	Endpoint string
	// Headers is a comma-separated list of key=value pairs, typically
	// carrying collector auth.
	Headers string
}

// Setup installs a global tracer provider and returns its shutdown function.
// The returned function flushes buffered spans and must be called on exit.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (func(context.Context) error, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion("1.0.0"),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if cfg.Endpoint != "" {
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(strings.TrimSuffix(cfg.Endpoint, "/")+"/v1/traces"),
			otlptracehttp.WithHeaders(ParseHeaders(cfg.Headers)),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
		logger.Info("otlp trace export enabled", "endpoint", cfg.Endpoint)
	} else {
		logger.Warn("OTEL_EXPORTER_OTLP_ENDPOINT not set, trace export disabled")
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

// ParseHeaders splits a "k1=v1,k2=v2" header string into a map. Surrounding
// quotes and whitespace are stripped so values can be pasted from shell exports.
func ParseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	raw = strings.Trim(strings.TrimSpace(raw), `"'`)
	if raw == "" {
		return headers
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers
}
