//go:build !govips || !cgo

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/pixelconvert/internal/domain"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// stdlibCodec is the engine used when libvips is not compiled in. It honours
// quality for jpeg, webp and avif, compression level for png and effort for
// avif. Progressive jpeg, png filtering and webp or gif effort have no
// equivalent in its encoders and are ignored.
type stdlibCodec struct{}

func (stdlibCodec) Probe(input []byte) (Header, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		return Header{}, fmt.Errorf("decode image header: %w", err)
	}
	return Header{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

func (stdlibCodec) Transform(ctx context.Context, input []byte, t Transform) (Encoded, error) {
	select {
	case <-ctx.Done():
		return Encoded{}, ctx.Err()
	default:
	}

	src, err := imaging.Decode(bytes.NewReader(input))
	if err != nil {
		return Encoded{}, fmt.Errorf("decode source image: %w", err)
	}

	out := applyResizePlan(src, t.Resize)

	data, err := encodeImage(out, t.Encode)
	if err != nil {
		return Encoded{}, err
	}

	bounds := out.Bounds()
	return Encoded{
		Data:   data,
		Format: string(t.Encode.Format),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

func applyResizePlan(src image.Image, plan ResizePlan) image.Image {
	switch plan.Mode {
	case ResizeScale:
		return imaging.Resize(src, plan.Width, plan.Height, imaging.Lanczos)
	case ResizeCrop:
		return imaging.Fill(src, plan.CanvasWidth, plan.CanvasHeight, imaging.Center, imaging.Lanczos)
	case ResizeEmbed:
		scaled := imaging.Resize(src, plan.Width, plan.Height, imaging.Lanczos)
		canvas := imaging.New(plan.CanvasWidth, plan.CanvasHeight, color.NRGBA{})
		return imaging.PasteCenter(canvas, scaled)
	default:
		return src
	}
}

func encodeImage(img image.Image, params EncodeParams) ([]byte, error) {
	var buf bytes.Buffer

	switch params.Format {
	case domain.FormatJPEG:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(params.Quality)); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case domain.FormatPNG:
		level := png.DefaultCompression
		if params.CompressionLevel >= 9 {
			level = png.BestCompression
		}
		if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(level)); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case domain.FormatGIF:
		if err := imaging.Encode(&buf, img, imaging.GIF, imaging.GIFNumColors(256)); err != nil {
			return nil, fmt.Errorf("encode gif: %w", err)
		}
	case domain.FormatWEBP:
		return encodeWebP(img, params)
	case domain.FormatAVIF:
		return encodeAVIF(img, params)
	default:
		return nil, domain.UnsupportedFormat(string(params.Format))
	}

	return buf.Bytes(), nil
}
