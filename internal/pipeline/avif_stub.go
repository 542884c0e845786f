//go:build !cgo || (!govips && noavif)

package pipeline

import (
	"errors"
	"image"
)

const avifEncoderAvailable = false

func encodeAVIF(image.Image, EncodeParams) ([]byte, error) {
	return nil, errors.New("avif export requires cgo and libaom")
}
