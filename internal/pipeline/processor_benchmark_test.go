package pipeline

import (
	"context"
	"testing"

	"github.com/dunamismax/pixelconvert/internal/domain"
)

func BenchmarkProcessorConvertResize(b *testing.B) {
	source := buildTestPNG(b, 1920, 1080)
	processor, err := NewProcessor(0)
	if err != nil {
		b.Fatalf("new processor: %v", err)
	}

	opts := domain.ConversionOptions{Format: "jpeg", Quality: 82, Width: 640}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if result := processor.Convert(context.Background(), source, opts); !result.Success {
			b.Fatalf("convert: %s", result.Error)
		}
	}
}

func BenchmarkProcessorThumbnail(b *testing.B) {
	source := buildTestPNG(b, 1920, 1080)
	processor, err := NewProcessor(0)
	if err != nil {
		b.Fatalf("new processor: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if result := processor.Thumbnail(context.Background(), source, 200, "png"); !result.Success {
			b.Fatalf("thumbnail: %s", result.Error)
		}
	}
}

func BenchmarkProcessorConvertBatch(b *testing.B) {
	source := buildTestPNG(b, 800, 600)
	processor, err := NewProcessor(0)
	if err != nil {
		b.Fatalf("new processor: %v", err)
	}

	items := make([]BatchItem, 8)
	for i := range items {
		items[i] = BatchItem{Input: source, Options: domain.ConversionOptions{Format: "jpeg", Width: 400}}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, result := range processor.ConvertBatch(context.Background(), items) {
			if !result.Success {
				b.Fatalf("batch convert: %s", result.Error)
			}
		}
	}
}
