// Package observability exports Genkit traces over OTLP when enabled.
package observability

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ashryn/docschat/internal/config"
	"github.com/ashryn/docschat/internal/log"
)

// SetupTracing registers an OTLP HTTP span exporter with Genkit's tracer
// provider and returns a shutdown func. Must run before genkit.Init so the
// processor is in place when the first span starts. Disabled config returns
// a no-op shutdown.
func SetupTracing(ctx context.Context, cfg *config.Config, logger log.Logger) (func(), error) {
	if !cfg.OTLPEnabled {
		return func() {}, nil
	}

	endpoint := cfg.OTLPEndpoint
	if endpoint == "" {
		endpoint = "localhost:4318"
	}

	// os.Setenv is not concurrent-safe, but SetupTracing runs exactly once
	// during startup before any goroutines spawn.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}

	// The local collector terminates TLS; the hop to it stays insecure.
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled", "endpoint", endpoint, "service", cfg.ServiceName)

	shutdown := tracing.TracerProvider().Shutdown
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}, nil
}
