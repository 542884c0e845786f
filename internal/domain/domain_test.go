package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseImageFormat(t *testing.T) {
	tests := []struct {
		in   string
		want ImageFormat
	}{
		{"jpeg", FormatJPEG},
		{"JPG", FormatJPEG},
		{" Png ", FormatPNG},
		{"WEBP", FormatWEBP},
		{"avif", FormatAVIF},
		{"Gif", FormatGIF},
	}
	for _, tt := range tests {
		got, err := ParseImageFormat(tt.in)
		if err != nil {
			t.Fatalf("ParseImageFormat(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseImageFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseImageFormatRejectsUnknown(t *testing.T) {
	_, err := ParseImageFormat("bmp")
	if err == nil {
		t.Fatal("expected error for bmp")
	}
	if err.Error() != "Unsupported format: bmp" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatal("expected error to match ErrUnsupportedFormat")
	}
	if KindOf(err) != KindUnsupportedFormat {
		t.Fatalf("expected unsupported_format kind, got %s", KindOf(err))
	}
}

func TestParseFitMode(t *testing.T) {
	fit, err := ParseFitMode("")
	if err != nil || fit != FitInside {
		t.Fatalf("expected inside default, got %q err=%v", fit, err)
	}
	fit, err = ParseFitMode("COVER")
	if err != nil || fit != FitCover {
		t.Fatalf("expected cover, got %q err=%v", fit, err)
	}
	if _, err := ParseFitMode("stretch"); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConversionOptionsWithDefaults(t *testing.T) {
	opts := ConversionOptions{Format: "png"}.WithDefaults()
	if opts.Quality != DefaultQuality {
		t.Fatalf("expected quality %d, got %d", DefaultQuality, opts.Quality)
	}
	if opts.Fit != FitInside {
		t.Fatalf("expected fit inside, got %s", opts.Fit)
	}
	if !opts.OptimizeEnabled() {
		t.Fatal("expected optimize to default to true")
	}

	explicit := ConversionOptions{Format: "png", Quality: 40, Fit: FitCover, Optimize: Bool(false)}.WithDefaults()
	if explicit.Quality != 40 || explicit.Fit != FitCover || explicit.OptimizeEnabled() {
		t.Fatalf("explicit values were overridden: %+v", explicit)
	}
}

func TestPreviewOptionsWithDefaults(t *testing.T) {
	opts := PreviewOptions{}.WithDefaults()
	if opts.Quality != 75 || opts.MaxWidth != 1920 || opts.MaxHeight != 1080 {
		t.Fatalf("unexpected preview defaults: %+v", opts)
	}
	if opts.DetectBrowser {
		t.Fatal("expected browser detection to default to false")
	}
}

func TestCompressionRatio(t *testing.T) {
	meta := ImageMetadata{Format: "jpeg", Width: 10, Height: 10, Size: 250}.WithOriginalSize(1000)
	if meta.OriginalSize == nil || *meta.OriginalSize != 1000 {
		t.Fatalf("expected original size 1000, got %v", meta.OriginalSize)
	}
	if meta.CompressionRatio == nil || *meta.CompressionRatio != 75 {
		t.Fatalf("expected compression ratio 75, got %v", meta.CompressionRatio)
	}

	grown := ImageMetadata{Size: 300}.WithOriginalSize(200)
	if *grown.CompressionRatio != -50 {
		t.Fatalf("expected -50, got %v", *grown.CompressionRatio)
	}

	empty := ImageMetadata{Size: 10}.WithOriginalSize(0)
	if empty.CompressionRatio != nil {
		t.Fatal("expected no compression ratio for zero original size")
	}
}

func TestConversionResultVariants(t *testing.T) {
	ok := Succeeded([]byte("abc"), ImageMetadata{Format: "png", Size: 3})
	if !ok.Success || ok.Image != "YWJj" || ok.Error != "" {
		t.Fatalf("unexpected success result: %+v", ok)
	}

	failed := Failed(UnsupportedFormat("tga"))
	if failed.Success || failed.Image != "" || failed.Metadata != nil {
		t.Fatalf("failure variant carries image data: %+v", failed)
	}
	if !strings.Contains(failed.Error, "tga") {
		t.Fatalf("expected error to name the format, got %q", failed.Error)
	}
}

func TestNewUsageLogClamps(t *testing.T) {
	result := Succeeded(make([]byte, 500), ImageMetadata{Format: "png", Width: 20, Height: 10, Size: 500})
	usage := NewUsageLog("u-1", "convert", "req-1", 100, result, 0)
	if usage.BytesSaved != 0 {
		t.Fatalf("expected bytes saved clamped to 0, got %d", usage.BytesSaved)
	}
	if usage.ComputeTimeMS != 1 {
		t.Fatalf("expected compute time clamped to 1, got %d", usage.ComputeTimeMS)
	}
	if usage.PixelsProcessed != 200 {
		t.Fatalf("expected 200 pixels, got %d", usage.PixelsProcessed)
	}

	usage = NewUsageLog("u-2", "convert", "req-2", 1000, result, 250*time.Millisecond)
	if usage.BytesSaved != 500 || usage.ComputeTimeMS != 250 {
		t.Fatalf("unexpected usage counters: %+v", usage)
	}
}

func TestEncodeFailureMessage(t *testing.T) {
	cause := errors.New("webp: bad dimensions")
	err := EncodeFailure("convert", cause)
	if err.Kind != KindEncode || !errors.Is(err, cause) {
		t.Fatalf("unexpected encode failure %+v", err)
	}
	if Message(err) != "Conversion failed: webp: bad dimensions" || err.Error() != Message(err) {
		t.Fatalf("unexpected texts message=%q error=%q", Message(err), err.Error())
	}
	if Failed(err).Error != Message(err) {
		t.Fatalf("expected result error to match client message, got %q", Failed(err).Error)
	}

	typed := UnsupportedFormat("bmp")
	if got := EncodeFailure("convert", typed); got != typed {
		t.Fatalf("expected typed error to pass through, got %+v", got)
	}
	if EncodeFailure("convert", nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}
