package tracing

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/storedb/pkg/tracing/exporters"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const tracerName = "github.com/Ramsey-B/storedb"

// Setup installs a tracer provider. Spans go to the OTLP collector when an endpoint is
// configured and are discarded otherwise. The returned func flushes and stops the provider.
func Setup(ctx context.Context, cfg exporters.OTLPConfig) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter = exporters.Discard{}
	if cfg.Endpoint != "" {
		otlp, err := exporters.NewOTLPExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		exporter = otlp
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	SetTracer(provider.Tracer(tracerName))

	return provider.Shutdown, nil
}
