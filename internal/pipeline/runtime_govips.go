//go:build govips && cgo

package pipeline

import (
	"log"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

const avifEncoderAvailable = true

var (
	startupOnce sync.Once
	shutdownMu  sync.Mutex
	started     bool
)

func Startup(cfg RuntimeConfig, logger *log.Logger) error {
	startupOnce.Do(func() {
		if logger != nil {
			vips.LoggingSettings(func(domain string, level vips.LogLevel, message string) {
				logger.Printf("vips domain=%s level=%d msg=%s", domain, level, message)
			}, vips.LogLevelWarning)
		}

		vips.Startup(&vips.Config{
			ConcurrencyLevel: cfg.ConcurrencyLevel,
			MaxCacheFiles:    0,
			MaxCacheMem:      cfg.MaxCacheMem,
			MaxCacheSize:     cfg.MaxCacheSize,
		})

		shutdownMu.Lock()
		started = true
		shutdownMu.Unlock()
	})
	return nil
}

func Shutdown() {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if !started {
		return
	}
	vips.Shutdown()
	started = false
}

func Engine() string {
	return "libvips " + vips.Version
}

func newCodec() (Codec, error) {
	return govipsCodec{}, nil
}
