package pipeline

import (
	"context"
)

// Header is what a codec reports about a buffer without a full decode.
type Header struct {
	Format string
	Width  int
	Height int
}

// Transform is the full instruction set for one decode, resize, encode pass.
type Transform struct {
	Resize ResizePlan
	Encode EncodeParams
}

type Encoded struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Codec is the image engine boundary. Implementations must be safe for
// concurrent use and hold no per-request state.
type Codec interface {
	Probe(input []byte) (Header, error)
	Transform(ctx context.Context, input []byte, t Transform) (Encoded, error)
}

type RuntimeConfig struct {
	MaxCacheMem      int
	MaxCacheSize     int
	ConcurrencyLevel int
}
