//go:build govips && cgo

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/dunamismax/pixelconvert/internal/domain"
)

type govipsCodec struct{}

func (govipsCodec) Probe(input []byte) (Header, error) {
	if vips.DetermineImageType(input) == vips.ImageTypeUnknown {
		return Header{}, errors.New("unrecognised image container")
	}

	// libvips loads lazily; only the header is read here.
	img, err := vips.NewImageFromBuffer(input)
	if err != nil {
		return Header{}, fmt.Errorf("load image header: %w", err)
	}
	defer img.Close()

	return Header{
		Format: formatName(img.Format()),
		Width:  img.Width(),
		Height: img.Height(),
	}, nil
}

func (govipsCodec) Transform(ctx context.Context, input []byte, t Transform) (Encoded, error) {
	select {
	case <-ctx.Done():
		return Encoded{}, ctx.Err()
	default:
	}

	img, err := vips.NewImageFromBuffer(input)
	if err != nil {
		return Encoded{}, fmt.Errorf("decode source image: %w", err)
	}
	defer img.Close()

	if err := applyGovipsPlan(img, t.Resize); err != nil {
		return Encoded{}, err
	}

	data, err := exportGovipsImage(img, t.Encode)
	if err != nil {
		return Encoded{}, err
	}

	return Encoded{
		Data:   data,
		Format: string(t.Encode.Format),
		Width:  img.Width(),
		Height: img.Height(),
	}, nil
}

func applyGovipsPlan(img *vips.ImageRef, plan ResizePlan) error {
	if !plan.Active() {
		return nil
	}

	if plan.Width != img.Width() || plan.Height != img.Height() {
		hscale := float64(plan.Width) / float64(img.Width())
		vscale := float64(plan.Height) / float64(img.Height())
		if err := img.ResizeWithVScale(hscale, vscale, vips.KernelLanczos3); err != nil {
			return fmt.Errorf("resize image: %w", err)
		}
	}

	switch plan.Mode {
	case ResizeCrop:
		w, h := min(plan.CanvasWidth, img.Width()), min(plan.CanvasHeight, img.Height())
		if err := img.ExtractArea((img.Width()-w)/2, (img.Height()-h)/2, w, h); err != nil {
			return fmt.Errorf("crop image: %w", err)
		}
	case ResizeEmbed:
		left := (plan.CanvasWidth - img.Width()) / 2
		top := (plan.CanvasHeight - img.Height()) / 2
		if err := img.Embed(left, top, plan.CanvasWidth, plan.CanvasHeight, vips.ExtendBlack); err != nil {
			return fmt.Errorf("embed image: %w", err)
		}
	}
	return nil
}

func exportGovipsImage(img *vips.ImageRef, params EncodeParams) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	switch params.Format {
	case domain.FormatJPEG:
		p := vips.NewJpegExportParams()
		p.Quality = params.Quality
		p.Interlace = params.Progressive
		p.OptimizeScans = params.OptimizeScans
		p.OptimizeCoding = params.OptimizeCoding
		p.TrellisQuant = params.OptimizeCoding
		p.OvershootDeringing = params.OptimizeCoding
		data, _, err = img.ExportJpeg(p)
	case domain.FormatPNG:
		p := vips.NewPngExportParams()
		p.Quality = params.Quality
		p.Compression = params.CompressionLevel
		p.Interlace = params.Progressive
		p.Filter = vips.PngFilterNone
		if params.AdaptiveFiltering {
			p.Filter = vips.PngFilterAll
		}
		data, _, err = img.ExportPng(p)
	case domain.FormatWEBP:
		// libvips exposes no smart-subsample switch through govips; effort
		// carries the optimize flag on its own.
		p := vips.NewWebpExportParams()
		p.Quality = params.Quality
		p.ReductionEffort = params.Effort
		data, _, err = img.ExportWebp(p)
	case domain.FormatAVIF:
		p := vips.NewAvifExportParams()
		p.Quality = params.Quality
		p.Effort = params.Effort
		data, _, err = img.ExportAvif(p)
	case domain.FormatGIF:
		p := vips.NewGifExportParams()
		p.Effort = params.Effort
		data, _, err = img.ExportGIF(p)
	default:
		return nil, domain.UnsupportedFormat(string(params.Format))
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", params.Format, err)
	}
	return data, nil
}

func formatName(t vips.ImageType) string {
	switch t {
	case vips.ImageTypeJPEG:
		return "jpeg"
	case vips.ImageTypePNG:
		return "png"
	case vips.ImageTypeWEBP:
		return "webp"
	case vips.ImageTypeGIF:
		return "gif"
	case vips.ImageTypeHEIF:
		return domain.FormatHEIF
	case vips.ImageTypeAVIF:
		return "avif"
	case vips.ImageTypeTIFF:
		return "tiff"
	case vips.ImageTypeBMP:
		return "bmp"
	case vips.ImageTypeSVG:
		return "svg"
	case vips.ImageTypePDF:
		return "pdf"
	default:
		return domain.FormatUnknown
	}
}
