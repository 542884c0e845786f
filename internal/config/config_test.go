package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.API.Addr != ":8080" || cfg.API.RoutePrefix != "/api" {
		t.Fatalf("unexpected api defaults %+v", cfg.API)
	}
	if cfg.API.MaxUploadBytes != 25<<20 {
		t.Fatalf("expected 25 MiB upload cap, got %d", cfg.API.MaxUploadBytes)
	}
	if cfg.API.ReadTimeout != 30*time.Second {
		t.Fatalf("expected 30s read timeout, got %s", cfg.API.ReadTimeout)
	}
	if cfg.Convert.Quality != 85 {
		t.Fatalf("expected convert quality 85, got %d", cfg.Convert.Quality)
	}
	if cfg.Preview.Quality != 75 || cfg.Preview.MaxWidth != 1920 || cfg.Preview.MaxHeight != 1080 {
		t.Fatalf("unexpected preview defaults %+v", cfg.Preview)
	}
	if cfg.Storage.Enabled || cfg.Usage.PostgresDSN != "" {
		t.Fatal("expected storage off and in-memory usage by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PIXELCONVERT_API_ADDR", ":9090")
	t.Setenv("PIXELCONVERT_PREVIEW_MAX_WIDTH", "800")
	t.Setenv("PIXELCONVERT_TRACING_EXPORTER", "stdout")
	t.Setenv("PIXELCONVERT_API_WRITE_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Addr != ":9090" {
		t.Fatalf("expected :9090, got %s", cfg.API.Addr)
	}
	if cfg.Preview.MaxWidth != 800 {
		t.Fatalf("expected max width 800, got %d", cfg.Preview.MaxWidth)
	}
	if cfg.Tracing.Exporter != "stdout" {
		t.Fatalf("expected stdout exporter, got %s", cfg.Tracing.Exporter)
	}
	if cfg.API.WriteTimeout != 5*time.Second {
		t.Fatalf("expected 5s write timeout, got %s", cfg.API.WriteTimeout)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := "convert:\n  quality: 70\nstorage:\n  enabled: true\n  bucket: photos\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Convert.Quality != 70 {
		t.Fatalf("expected quality 70, got %d", cfg.Convert.Quality)
	}
	if !cfg.Storage.Enabled || cfg.Storage.Bucket != "photos" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PIXELCONVERT_CONVERT_QUALITY", "0")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "convert.quality") {
		t.Fatalf("expected convert.quality validation error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		API:     APIConfig{Addr: ":8080", RoutePrefix: "/api", MaxUploadBytes: 1},
		Codec:   CodecConfig{BatchParallelism: 1},
		Convert: ConvertConfig{Quality: 85},
		Preview: PreviewConfig{Quality: 75, MaxWidth: 10, MaxHeight: 10},
		Tracing: TracingConfig{Exporter: "none", SampleRatio: 1},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected base config to validate, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"trailing slash prefix", func(c *Config) { c.API.RoutePrefix = "/api/" }},
		{"otlp without endpoint", func(c *Config) { c.Tracing.Exporter = "otlp" }},
		{"unknown exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }},
		{"storage without bucket", func(c *Config) { c.Storage.Enabled = true }},
		{"zero upload cap", func(c *Config) { c.API.MaxUploadBytes = 0 }},
		{"sample ratio above one", func(c *Config) { c.Tracing.SampleRatio = 1.5 }},
	}
	for _, tt := range tests {
		cfg := base
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tt.name)
		}
	}
}
