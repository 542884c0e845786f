package pipeline

import (
	"github.com/dunamismax/pixelconvert/internal/domain"
)

// EncodeParams is the per-format parameter set handed to a codec. Fields that
// do not apply to Format are left at their zero value.
type EncodeParams struct {
	Format  domain.ImageFormat
	Quality int

	// jpeg
	Progressive    bool
	OptimizeScans  bool
	OptimizeCoding bool

	// png
	CompressionLevel  int
	AdaptiveFiltering bool

	// webp, avif, gif
	Effort         int
	SmartSubsample bool
}

// EncodeParamsFor maps a target format, quality and optimize flag onto codec
// parameters. Quality is passed through unchecked; gif ignores it.
func EncodeParamsFor(format string, quality int, optimize bool) (EncodeParams, error) {
	target, err := domain.ParseImageFormat(format)
	if err != nil {
		return EncodeParams{}, err
	}

	params := EncodeParams{Format: target, Quality: quality}
	switch target {
	case domain.FormatJPEG:
		params.Progressive = true
		params.OptimizeScans = optimize
		params.OptimizeCoding = optimize
	case domain.FormatPNG:
		params.Progressive = true
		params.CompressionLevel = 6
		if optimize {
			params.CompressionLevel = 9
		}
		params.AdaptiveFiltering = optimize
	case domain.FormatWEBP:
		params.Effort = 4
		if optimize {
			params.Effort = 6
		}
		params.SmartSubsample = optimize
	case domain.FormatAVIF:
		params.Effort = 4
		if optimize {
			params.Effort = 9
		}
	case domain.FormatGIF:
		params.Quality = 0
		params.Effort = 7
		if optimize {
			params.Effort = 10
		}
	}
	return params, nil
}
