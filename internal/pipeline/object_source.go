package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrObjectSourceDisabled = errors.New("object storage source is disabled")
	ErrInvalidObjectKey     = errors.New("invalid object key")
)

type objectReader interface {
	ReadObject(ctx context.Context, objectKey string) ([]byte, error)
}

// ObjectStoreFetcher reads conversion sources from object storage. It never
// writes: outputs are only returned to the caller.
type ObjectStoreFetcher struct {
	Storage objectReader
	Prefix  string
}

func (f ObjectStoreFetcher) Fetch(ctx context.Context, objectKey string) ([]byte, error) {
	if f.Storage == nil {
		return nil, ErrObjectSourceDisabled
	}

	objectKey = strings.TrimLeft(strings.TrimSpace(objectKey), "/")
	if objectKey == "" || strings.Contains(objectKey, "..") {
		return nil, fmt.Errorf("%w %q", ErrInvalidObjectKey, objectKey)
	}
	if prefix := strings.Trim(strings.TrimSpace(f.Prefix), "/"); prefix != "" {
		objectKey = prefix + "/" + objectKey
	}

	return f.Storage.ReadObject(ctx, objectKey)
}
