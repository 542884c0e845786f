package telemetry

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dunamismax/pixelconvert/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// Conversion spans are short; flush them sooner than the sdk default.
const spanBatchTimeout = 2 * time.Second

// ServiceInfo identifies the running converter on every exported span.
type ServiceInfo struct {
	Version string
	Engine  string
}

// SetupTracing installs the global tracer provider and returns its shutdown
// func. With the exporter set to none the global no-op provider stays in
// place and the returned func does nothing.
func SetupTracing(ctx context.Context, cfg config.TracingConfig, info ServiceInfo, logger *log.Logger) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	kind := exporterKind(cfg.Exporter)
	if kind == "none" {
		if logger != nil {
			logger.Printf("tracing disabled")
		}
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newSpanExporter(ctx, kind, cfg, os.Stdout)
	if err != nil {
		return nil, err
	}

	tp, err := newTracerProvider(cfg, info, sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(spanBatchTimeout)))
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)

	if logger != nil {
		logger.Printf("tracing enabled exporter=%s service=%s engine=%s sample_ratio=%.2f",
			kind, cfg.ServiceName, info.Engine, cfg.SampleRatio)
	}
	return tp.Shutdown, nil
}

func exporterKind(name string) string {
	kind := strings.ToLower(strings.TrimSpace(name))
	if kind == "" {
		return "none"
	}
	return kind
}

// newSpanExporter builds the exporter for kind. stdout writes to w.
func newSpanExporter(ctx context.Context, kind string, cfg config.TracingConfig, w io.Writer) (sdktrace.SpanExporter, error) {
	switch kind {
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout span exporter: %w", err)
		}
		return exp, nil
	case "otlp":
		endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
		if endpoint == "" {
			return nil, fmt.Errorf("otlp span exporter requires an endpoint")
		}
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp span exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported span exporter: %s", kind)
	}
}

func newTracerProvider(cfg config.TracingConfig, info ServiceInfo, processor sdktrace.TracerProviderOption) (*sdktrace.TracerProvider, error) {
	res, err := serviceResource(cfg.ServiceName, info)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SampleRatio)),
	), nil
}

func serviceResource(name string, info ServiceInfo) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(name)}
	if info.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(info.Version))
	}
	if info.Engine != "" {
		attrs = append(attrs, attribute.String("pixelconvert.engine", info.Engine))
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}
	return res, nil
}

// newSampler honours the parent decision and samples roots at ratio. The
// ratio ends map to the fixed samplers.
func newSampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}
