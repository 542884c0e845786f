package telemetry

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/dunamismax/pixelconvert/internal/config"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetupTracingDisabled(t *testing.T) {
	for _, exporter := range []string{"none", "", "  NONE "} {
		shutdown, err := SetupTracing(context.Background(), config.TracingConfig{Exporter: exporter}, ServiceInfo{}, log.New(io.Discard, "", 0))
		if err != nil {
			t.Fatalf("setup tracing %q: %v", exporter, err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("shutdown %q: %v", exporter, err)
		}
	}
}

func TestSetupTracingRejectsBadExporter(t *testing.T) {
	if _, err := SetupTracing(context.Background(), config.TracingConfig{Exporter: "zipkin"}, ServiceInfo{}, nil); err == nil {
		t.Fatal("expected unsupported exporter error")
	}
	if _, err := SetupTracing(context.Background(), config.TracingConfig{Exporter: "otlp", OTLPEndpoint: "  "}, ServiceInfo{}, nil); err == nil {
		t.Fatal("expected missing endpoint error")
	}
}

func TestStdoutExporterCarriesServiceInfo(t *testing.T) {
	var out bytes.Buffer
	cfg := config.TracingConfig{ServiceName: "pixelconvert-test", Exporter: "stdout", SampleRatio: 1}

	exp, err := newSpanExporter(context.Background(), "stdout", cfg, &out)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	tp, err := newTracerProvider(cfg, ServiceInfo{Version: "1.0.0", Engine: "imaging"}, sdktrace.WithSyncer(exp))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	_, span := tp.Tracer("test").Start(context.Background(), "POST /api/convert")
	span.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	got := out.String()
	for _, want := range []string{"POST /api/convert", "pixelconvert-test", "pixelconvert.engine", "imaging", "service.version"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected exported span to contain %q, got %s", want, got)
		}
	}
}

func TestSamplerRatioEnds(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		desc := newSampler(tt.ratio).Description()
		if !strings.HasPrefix(desc, "ParentBased{root:"+tt.want) {
			t.Fatalf("ratio %v: expected root %s, got %s", tt.ratio, tt.want, desc)
		}
	}
}
