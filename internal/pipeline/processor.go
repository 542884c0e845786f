package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Processor runs the conversion pipeline. It holds no mutable state and is
// shared by all requests.
type Processor struct {
	codec      Codec
	batchLimit int
	tracer     trace.Tracer
}

type BatchItem struct {
	Input   []byte
	Options domain.ConversionOptions
}

func NewProcessor(batchLimit int) (*Processor, error) {
	codec, err := newCodec()
	if err != nil {
		return nil, fmt.Errorf("build codec: %w", err)
	}
	return NewProcessorWithCodec(codec, batchLimit), nil
}

func NewProcessorWithCodec(codec Codec, batchLimit int) *Processor {
	if batchLimit <= 0 {
		batchLimit = max(1, runtime.NumCPU())
	}
	return &Processor{
		codec:      codec,
		batchLimit: batchLimit,
		tracer:     otel.Tracer("pixelconvert/pipeline"),
	}
}

// ReadMetadata reports the source format and dimensions. Size is the length
// of input, not of any re-encoded form.
func (p *Processor) ReadMetadata(ctx context.Context, input []byte) (domain.ImageMetadata, error) {
	_, span := p.tracer.Start(ctx, "pipeline.read_metadata")
	defer span.End()

	header, err := p.probe(input)
	if err != nil {
		span.RecordError(err)
		return domain.ImageMetadata{}, err
	}

	format := header.Format
	if format == "" {
		format = domain.FormatUnknown
	}
	span.SetAttributes(attribute.String("image.format", format))
	return domain.ImageMetadata{
		Format: format,
		Width:  header.Width,
		Height: header.Height,
		Size:   len(input),
	}, nil
}

func (p *Processor) IsValidImage(input []byte) bool {
	_, err := p.probe(input)
	return err == nil
}

// Convert decodes input, applies the optional resize and encodes to
// opts.Format. Every failure, including a codec panic, is returned as the
// failure variant.
func (p *Processor) Convert(ctx context.Context, input []byte, opts domain.ConversionOptions) (result domain.ConversionResult) {
	ctx, span := p.tracer.Start(ctx, "pipeline.convert")
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			result = domain.Failed(&domain.Error{
				Kind:    domain.KindEncode,
				Op:      "convert",
				Message: fmt.Sprintf("codec panic: %v", r),
			})
		}
		if !result.Success {
			span.SetStatus(codes.Error, result.Error)
		}
	}()

	opts = opts.WithDefaults()
	originalSize := len(input)
	span.SetAttributes(
		attribute.String("convert.format", opts.Format),
		attribute.Int("convert.quality", opts.Quality),
		attribute.Int("convert.original_size", originalSize),
	)

	params, err := EncodeParamsFor(opts.Format, opts.Quality, opts.OptimizeEnabled())
	if err != nil {
		return domain.Failed(err)
	}

	header, err := p.probe(input)
	if err != nil {
		return domain.Failed(err)
	}

	var plan ResizePlan
	if opts.HasResize() {
		plan = PlanResize(header.Width, header.Height, opts.Width, opts.Height, opts.Fit)
	}

	out, err := p.codec.Transform(ctx, input, Transform{Resize: plan, Encode: params})
	if err != nil {
		return domain.Failed(domain.EncodeFailure("convert", err))
	}

	meta := domain.ImageMetadata{
		Format: out.Format,
		Width:  out.Width,
		Height: out.Height,
		Size:   len(out.Data),
	}.WithOriginalSize(originalSize)
	return domain.Succeeded(out.Data, meta)
}

// Optimize re-encodes input in its own format.
func (p *Processor) Optimize(ctx context.Context, input []byte, quality int) domain.ConversionResult {
	meta, err := p.ReadMetadata(ctx, input)
	if err != nil {
		return domain.Failed(err)
	}
	if meta.Format == domain.FormatUnknown {
		return domain.Failed(domain.InvalidImage("Unable to detect image format", nil))
	}

	return p.Convert(ctx, input, domain.ConversionOptions{
		Format:   meta.Format,
		Quality:  quality,
		Optimize: domain.Bool(true),
	})
}

// Thumbnail produces a size x size cover crop, or smaller when the source is.
func (p *Processor) Thumbnail(ctx context.Context, input []byte, size int, format string) domain.ConversionResult {
	if size <= 0 {
		size = domain.DefaultThumbnailSize
	}
	if format == "" {
		format = string(domain.DefaultThumbnailFormat)
	}

	return p.Convert(ctx, input, domain.ConversionOptions{
		Format:   format,
		Quality:  domain.DefaultQuality,
		Width:    size,
		Height:   size,
		Fit:      domain.FitCover,
		Optimize: domain.Bool(true),
	})
}

// ConvertBatch converts every item independently. Results keep input order
// and one item's failure never affects another.
func (p *Processor) ConvertBatch(ctx context.Context, items []BatchItem) []domain.ConversionResult {
	results := make([]domain.ConversionResult, len(items))

	var g errgroup.Group
	g.SetLimit(p.batchLimit)
	for i, item := range items {
		g.Go(func() error {
			results[i] = p.Convert(ctx, item.Input, item.Options)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (p *Processor) probe(input []byte) (Header, error) {
	if len(input) == 0 {
		return Header{}, domain.InvalidImage("Invalid image file", nil)
	}
	header, err := p.codec.Probe(input)
	if err != nil {
		return Header{}, domain.InvalidImage("Invalid image file", err)
	}
	return header, nil
}
