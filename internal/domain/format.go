package domain

import (
	"strings"
)

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatJPG  ImageFormat = "jpg"
	FormatPNG  ImageFormat = "png"
	FormatWEBP ImageFormat = "webp"
	FormatAVIF ImageFormat = "avif"
	FormatGIF  ImageFormat = "gif"

	// FormatHEIF is only ever reported for sources; it is not an output format.
	FormatHEIF = "heif"
	// FormatUnknown is reported when the codec recognises a container but cannot name it.
	FormatUnknown = "unknown"
)

// ParseImageFormat matches an output format name case-insensitively. "jpg" is
// accepted and normalised to "jpeg".
func ParseImageFormat(raw string) (ImageFormat, error) {
	switch ImageFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatJPEG, FormatJPG:
		return FormatJPEG, nil
	case FormatPNG:
		return FormatPNG, nil
	case FormatWEBP:
		return FormatWEBP, nil
	case FormatAVIF:
		return FormatAVIF, nil
	case FormatGIF:
		return FormatGIF, nil
	default:
		return "", UnsupportedFormat(raw)
	}
}

type FitMode string

const (
	FitCover   FitMode = "cover"
	FitContain FitMode = "contain"
	FitFill    FitMode = "fill"
	FitInside  FitMode = "inside"
	FitOutside FitMode = "outside"
)

func ParseFitMode(raw string) (FitMode, error) {
	fit := FitMode(strings.ToLower(strings.TrimSpace(raw)))
	switch fit {
	case "":
		return FitInside, nil
	case FitCover, FitContain, FitFill, FitInside, FitOutside:
		return fit, nil
	default:
		return "", Validationf("Invalid fit parameter: %s", raw)
	}
}
