//go:build !govips && cgo && !noavif

package pipeline

import (
	"bytes"
	"fmt"
	"image"

	"github.com/Kagami/go-avif"
)

const avifEncoderAvailable = true

// Speeds below this make libaom impractically slow for request-time encoding.
const avifMinSpeed = 2

// encodeAVIF maps quality 1-100 onto libaom's 63-0 quantizer and effort 0-9
// onto libaom speed 8-2.
func encodeAVIF(img image.Image, params EncodeParams) ([]byte, error) {
	var buf bytes.Buffer
	opts := &avif.Options{
		Speed:   avifSpeed(params.Effort),
		Quality: avifQuantizer(params.Quality),
	}
	if err := avif.Encode(&buf, img, opts); err != nil {
		return nil, fmt.Errorf("encode avif: %w", err)
	}
	return buf.Bytes(), nil
}

func avifQuantizer(quality int) int {
	quality = min(max(quality, 0), 100)
	return avif.MaxQuality - quality*avif.MaxQuality/100
}

func avifSpeed(effort int) int {
	effort = min(max(effort, 0), 9)
	return avif.MaxSpeed - effort*(avif.MaxSpeed-avifMinSpeed)/9
}
