package tracer

import (
	"context"

	"career-counselor-be/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const (
	serviceName     = "career-counselor-backend"
	defaultEndpoint = "localhost:4318"
)

type Config struct {
	Enabled     bool
	Endpoint    string
	Environment string
}

// Shutdown flushes pending spans.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTracer installs a global tracer provider that exports spans over OTLP
// HTTP (Jaeger speaks it on 4318). A disabled or broken exporter leaves the
// default no-op provider in place.
func InitTracer(cfg Config, log logger.ILogger) Shutdown {
	if !cfg.Enabled {
		log.Info("TRACER", "Tracing disabled, set OTEL_ENABLED=true to export spans", nil)
		return noopShutdown
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Warn("TRACER", "OTLP exporter unavailable, tracing disabled", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		return noopShutdown
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		)),
	)
	otel.SetTracerProvider(tp)

	log.Info("TRACER", "Tracer initialized", map[string]interface{}{"endpoint": endpoint})
	return tp.Shutdown
}
