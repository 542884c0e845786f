package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/pixelconvert/internal/api"
	"github.com/dunamismax/pixelconvert/internal/config"
	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/pipeline"
	"github.com/dunamismax/pixelconvert/internal/preview"
	"github.com/dunamismax/pixelconvert/internal/storage"
	"github.com/dunamismax/pixelconvert/internal/store"
	"github.com/dunamismax/pixelconvert/internal/telemetry"
	"github.com/joho/godotenv"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmsgprefix)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env failed: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing, telemetry.ServiceInfo{
		Version: api.Version,
		Engine:  pipeline.Engine(),
	}, logger)
	if err != nil {
		logger.Fatalf("setup tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	vipsLogger := log.New(os.Stdout, "[vips] ", log.LstdFlags|log.Lmsgprefix)
	if err := pipeline.Startup(pipeline.RuntimeConfig{
		MaxCacheMem:      cfg.Codec.MaxCacheMem,
		MaxCacheSize:     cfg.Codec.MaxCacheSize,
		ConcurrencyLevel: cfg.Codec.Concurrency,
	}, vipsLogger); err != nil {
		logger.Fatalf("start codec runtime: %v", err)
	}
	defer pipeline.Shutdown()

	processor, err := pipeline.NewProcessor(cfg.Codec.BatchParallelism)
	if err != nil {
		logger.Fatalf("create processor: %v", err)
	}

	usageStore, closeUsage := openUsageStore(ctx, cfg.Usage, logger)
	defer closeUsage()

	var objects pipeline.ObjectStoreFetcher
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(storage.Config{
			Endpoint: cfg.Storage.Endpoint,
			Access:   cfg.Storage.AccessKey,
			Secret:   cfg.Storage.SecretKey,
			Bucket:   cfg.Storage.Bucket,
			UseSSL:   cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatalf("create storage client: %v", err)
		}
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := client.CheckBucket(checkCtx); err != nil {
			logger.Printf("storage bucket check failed bucket=%s err=%v", client.Bucket(), err)
		}
		cancel()
		objects = pipeline.ObjectStoreFetcher{Storage: client, Prefix: cfg.Storage.Prefix}
		logger.Printf("object source enabled bucket=%s", client.Bucket())
	}

	opts := api.Options{
		RoutePrefix:    cfg.API.RoutePrefix,
		MaxUploadBytes: cfg.API.MaxUploadBytes,
		ConvertQuality: cfg.Convert.Quality,
		Preview: domain.PreviewOptions{
			Quality:   cfg.Preview.Quality,
			MaxWidth:  cfg.Preview.MaxWidth,
			MaxHeight: cfg.Preview.MaxHeight,
		},
		Engine: pipeline.Engine(),
	}

	app := api.NewServer(logger, processor, preview.NewDecider(processor, processor), usageStore, objects, opts)

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
	}

	go func() {
		logger.Printf("listening on %s engine=%s", cfg.API.Addr, pipeline.Engine())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	logger.Println("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}

// openUsageStore returns nil when usage accounting is disabled. A Postgres
// store that cannot be reached falls back to memory so conversions keep
// working.
func openUsageStore(ctx context.Context, cfg config.UsageConfig, logger *log.Logger) (store.UsageStore, func()) {
	noop := func() {}
	if !cfg.Enabled {
		logger.Printf("usage accounting disabled")
		return nil, noop
	}
	if cfg.PostgresDSN == "" {
		logger.Printf("usage store=memory")
		return store.NewMemoryUsageStore(0), noop
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pg, err := store.NewPostgresUsageStore(connectCtx, cfg.PostgresDSN)
	if err != nil {
		logger.Printf("postgres usage store unavailable, falling back to memory: %v", err)
		return store.NewMemoryUsageStore(0), noop
	}

	logger.Printf("usage store=postgres")
	return pg, func() {
		if err := pg.Close(); err != nil {
			logger.Printf("usage store close error: %v", err)
		}
	}
}
