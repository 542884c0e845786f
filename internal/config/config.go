package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Codec   CodecConfig   `mapstructure:"codec"`
	Convert ConvertConfig `mapstructure:"convert"`
	Preview PreviewConfig `mapstructure:"preview"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Usage   UsageConfig   `mapstructure:"usage"`
	Storage StorageConfig `mapstructure:"storage"`
}

type APIConfig struct {
	Addr            string        `mapstructure:"addr"`
	RoutePrefix     string        `mapstructure:"route_prefix"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CodecConfig tunes the libvips runtime. It is ignored by the pure-Go codec
// except for BatchParallelism.
type CodecConfig struct {
	MaxCacheMem      int `mapstructure:"max_cache_mem"`
	MaxCacheSize     int `mapstructure:"max_cache_size"`
	Concurrency      int `mapstructure:"concurrency"`
	BatchParallelism int `mapstructure:"batch_parallelism"`
}

type ConvertConfig struct {
	Quality int `mapstructure:"quality"`
}

type PreviewConfig struct {
	Quality   int `mapstructure:"quality"`
	MaxWidth  int `mapstructure:"max_width"`
	MaxHeight int `mapstructure:"max_height"`
}

type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"`
	Exporter     string  `mapstructure:"exporter"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// UsageConfig selects the usage store. An empty PostgresDSN keeps usage in
// memory.
type UsageConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/pixelconvert")

	v.SetEnvPrefix("PIXELCONVERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.addr", ":8080")
	v.SetDefault("api.route_prefix", "/api")
	v.SetDefault("api.max_upload_bytes", 25<<20)
	v.SetDefault("api.read_timeout", "30s")
	v.SetDefault("api.write_timeout", "60s")
	v.SetDefault("api.idle_timeout", "120s")
	v.SetDefault("api.shutdown_timeout", "10s")

	v.SetDefault("codec.max_cache_mem", 64<<20)
	v.SetDefault("codec.max_cache_size", 100)
	v.SetDefault("codec.concurrency", 0)
	v.SetDefault("codec.batch_parallelism", max(1, runtime.NumCPU()))

	v.SetDefault("convert.quality", 85)

	v.SetDefault("preview.quality", 75)
	v.SetDefault("preview.max_width", 1920)
	v.SetDefault("preview.max_height", 1080)

	v.SetDefault("tracing.service_name", "pixelconvert-api")
	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.otlp_insecure", true)
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("usage.enabled", true)
	v.SetDefault("usage.postgres_dsn", "")

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.access_key", "minioadmin")
	v.SetDefault("storage.secret_key", "minioadmin")
	v.SetDefault("storage.bucket", "pixelconvert-sources")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.use_ssl", false)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.API.Addr) == "" {
		return errors.New("api.addr is required")
	}
	if prefix := c.API.RoutePrefix; prefix != "" && (!strings.HasPrefix(prefix, "/") || strings.HasSuffix(prefix, "/")) {
		return fmt.Errorf("api.route_prefix must start and not end with /: %q", prefix)
	}
	if c.API.MaxUploadBytes <= 0 {
		return errors.New("api.max_upload_bytes must be positive")
	}
	if c.Convert.Quality < 1 || c.Convert.Quality > 100 {
		return errors.New("convert.quality must be between 1 and 100")
	}
	if c.Preview.Quality < 1 || c.Preview.Quality > 100 {
		return errors.New("preview.quality must be between 1 and 100")
	}
	if c.Preview.MaxWidth <= 0 || c.Preview.MaxHeight <= 0 {
		return errors.New("preview.max_width and preview.max_height must be positive")
	}
	if c.Codec.MaxCacheMem < 0 || c.Codec.MaxCacheSize < 0 || c.Codec.Concurrency < 0 {
		return errors.New("codec settings must not be negative")
	}
	if c.Codec.BatchParallelism <= 0 {
		return errors.New("codec.batch_parallelism must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.Tracing.Exporter)) {
	case "", "none", "stdout":
	case "otlp":
		if strings.TrimSpace(c.Tracing.OTLPEndpoint) == "" {
			return errors.New("tracing.otlp_endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("unsupported tracing.exporter: %s", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return errors.New("tracing.sample_ratio must be between 0 and 1")
	}
	if c.Storage.Enabled && strings.TrimSpace(c.Storage.Bucket) == "" {
		return errors.New("storage.bucket is required when storage is enabled")
	}
	return nil
}
