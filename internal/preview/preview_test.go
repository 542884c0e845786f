package preview

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dunamismax/pixelconvert/internal/domain"
)

const (
	safariUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Safari/605.1.15"
	chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0 Safari/537.36"
)

type fakeInspector struct {
	meta domain.ImageMetadata
	err  error
}

func (f fakeInspector) ReadMetadata(context.Context, []byte) (domain.ImageMetadata, error) {
	return f.meta, f.err
}

type fakeConverter struct {
	calls int
	last  domain.ConversionOptions
	fail  bool
}

func (f *fakeConverter) Convert(_ context.Context, input []byte, opts domain.ConversionOptions) domain.ConversionResult {
	f.calls++
	f.last = opts
	if f.fail {
		return domain.Failed(&domain.Error{Kind: domain.KindEncode, Message: "Conversion failed"})
	}
	return domain.Succeeded([]byte("jpeg-bytes"), domain.ImageMetadata{
		Format: "jpeg",
		Width:  max(opts.Width, 1),
		Height: max(opts.Height, 1),
		Size:   10,
	}.WithOriginalSize(len(input)))
}

func heifSource() (fakeInspector, []byte) {
	input := []byte("....ftypheic-pretend-payload")
	return fakeInspector{meta: domain.ImageMetadata{Format: "heif", Width: 4032, Height: 3024, Size: len(input)}}, input
}

func TestDecideSafariSkipsHEIF(t *testing.T) {
	inspector, input := heifSource()
	converter := &fakeConverter{}

	decision, err := NewDecider(inspector, converter).Decide(context.Background(), input, domain.PreviewOptions{
		DetectBrowser: true,
		UserAgent:     safariUA,
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decision.Converted {
		t.Fatal("expected conversion to be skipped")
	}
	if decision.Browser != BrowserSafari {
		t.Fatalf("expected Safari, got %s", decision.Browser)
	}
	if !bytes.Equal(decision.Buffer, input) {
		t.Fatal("expected original buffer to be returned byte-identical")
	}
	if decision.Metadata != inspector.meta {
		t.Fatalf("expected original metadata, got %+v", decision.Metadata)
	}
	if converter.calls != 0 {
		t.Fatalf("expected no conversion, got %d calls", converter.calls)
	}
}

func TestDecideChromeConvertsHEIF(t *testing.T) {
	inspector, input := heifSource()
	converter := &fakeConverter{}

	decision, err := NewDecider(inspector, converter).Decide(context.Background(), input, domain.PreviewOptions{
		DetectBrowser: true,
		UserAgent:     chromeUA,
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !decision.Converted || decision.Metadata.Format != "jpeg" {
		t.Fatalf("expected jpeg conversion, got %+v", decision)
	}
	if decision.Browser != BrowserChrome {
		t.Fatalf("expected Chrome, got %s", decision.Browser)
	}

	got := converter.last
	if got.Format != "jpeg" || got.Quality != domain.DefaultPreviewQuality || !got.OptimizeEnabled() {
		t.Fatalf("unexpected conversion options %+v", got)
	}
	if got.Width != 1440 || got.Height != 1080 {
		t.Fatalf("expected bounding box resize to 1440x1080, got %dx%d", got.Width, got.Height)
	}
}

func TestDecideWithoutDetectionAlwaysConverts(t *testing.T) {
	inspector, input := heifSource()
	converter := &fakeConverter{}

	decision, err := NewDecider(inspector, converter).Decide(context.Background(), input, domain.PreviewOptions{
		UserAgent: safariUA,
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !decision.Converted {
		t.Fatal("expected conversion when browser detection is off")
	}
	if decision.Browser != "" {
		t.Fatalf("expected no browser, got %s", decision.Browser)
	}
}

func TestDecideSmallSourceIsNotResized(t *testing.T) {
	inspector := fakeInspector{meta: domain.ImageMetadata{Format: "png", Width: 800, Height: 600, Size: 42}}
	converter := &fakeConverter{}

	_, err := NewDecider(inspector, converter).Decide(context.Background(), []byte("png"), domain.PreviewOptions{
		Quality:   60,
		MaxWidth:  1000,
		MaxHeight: 1000,
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if converter.last.Width != 0 || converter.last.Height != 0 {
		t.Fatalf("expected no resize, got %dx%d", converter.last.Width, converter.last.Height)
	}
	if converter.last.Quality != 60 {
		t.Fatalf("expected quality 60, got %d", converter.last.Quality)
	}
}

func TestDecideSafariStillConvertsNonHEIF(t *testing.T) {
	inspector := fakeInspector{meta: domain.ImageMetadata{Format: "png", Width: 10, Height: 10, Size: 3}}
	converter := &fakeConverter{}

	decision, err := NewDecider(inspector, converter).Decide(context.Background(), []byte("png"), domain.PreviewOptions{
		DetectBrowser: true,
		UserAgent:     safariUA,
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !decision.Converted {
		t.Fatal("expected png to be converted for safari")
	}
}

func TestDecideErrors(t *testing.T) {
	invalid := fakeInspector{err: domain.InvalidImage("Invalid image file", nil)}
	if _, err := NewDecider(invalid, &fakeConverter{}).Decide(context.Background(), []byte("x"), domain.PreviewOptions{}); !errors.Is(err, domain.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}

	inspector := fakeInspector{meta: domain.ImageMetadata{Format: "png", Width: 10, Height: 10}}
	_, err := NewDecider(inspector, &fakeConverter{fail: true}).Decide(context.Background(), []byte("x"), domain.PreviewOptions{})
	if domain.KindOf(err) != domain.KindEncode {
		t.Fatalf("expected encode failure, got %v", err)
	}
}
