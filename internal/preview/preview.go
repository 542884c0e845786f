package preview

import (
	"context"
	"encoding/base64"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/pipeline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Inspector interface {
	ReadMetadata(ctx context.Context, input []byte) (domain.ImageMetadata, error)
}

type Converter interface {
	Convert(ctx context.Context, input []byte, opts domain.ConversionOptions) domain.ConversionResult
}

// Decision is the outcome of a preview request. When Converted is false,
// Buffer is the caller's input and Metadata describes it unchanged.
type Decision struct {
	Converted bool
	Browser   Browser
	Metadata  domain.ImageMetadata
	Buffer    []byte
	Image     string
}

type Decider struct {
	inspector Inspector
	converter Converter
	tracer    trace.Tracer
}

func NewDecider(inspector Inspector, converter Converter) *Decider {
	return &Decider{
		inspector: inspector,
		converter: converter,
		tracer:    otel.Tracer("pixelconvert/preview"),
	}
}

// Decide either passes input through untouched, for a heif source viewed by a
// browser that renders heif, or converts it to a bounded jpeg. Browser is
// empty unless opts.DetectBrowser is set.
func (d *Decider) Decide(ctx context.Context, input []byte, opts domain.PreviewOptions) (Decision, error) {
	ctx, span := d.tracer.Start(ctx, "preview.decide")
	defer span.End()

	opts = opts.WithDefaults()

	original, err := d.inspector.ReadMetadata(ctx, input)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Decision{}, err
	}

	var browser Browser
	if opts.DetectBrowser {
		browser = Classify(opts.UserAgent)
	}
	span.SetAttributes(
		attribute.String("preview.browser", string(browser)),
		attribute.String("preview.source_format", original.Format),
	)

	if browser.RendersHEIF() && original.Format == string(domain.FormatHEIF) {
		span.SetAttributes(attribute.Bool("preview.converted", false))
		return Decision{
			Converted: false,
			Browser:   browser,
			Metadata:  original,
			Buffer:    input,
			Image:     base64.StdEncoding.EncodeToString(input),
		}, nil
	}

	convertOpts := domain.ConversionOptions{
		Format:   string(domain.FormatJPEG),
		Quality:  opts.Quality,
		Optimize: domain.Bool(true),
	}
	if w, h, resize := pipeline.FitWithin(original.Width, original.Height, opts.MaxWidth, opts.MaxHeight); resize {
		convertOpts.Width, convertOpts.Height = w, h
	}

	result := d.converter.Convert(ctx, input, convertOpts)
	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
		if result.Err == nil {
			return Decision{}, &domain.Error{Kind: domain.KindEncode, Op: "preview", Message: result.Error}
		}
		return Decision{}, result.Err
	}

	span.SetAttributes(attribute.Bool("preview.converted", true))
	return Decision{
		Converted: true,
		Browser:   browser,
		Metadata:  *result.Metadata,
		Buffer:    result.Buffer,
		Image:     result.Image,
	}, nil
}
