package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/pipeline"
	"github.com/dunamismax/pixelconvert/internal/storage"
	"github.com/gabriel-vasile/mimetype"
)

const (
	maxBatchFiles  = 20
	fileField      = "file"
	objectKeyField = "objectKey"
)

type convertRequest struct {
	File    []byte
	Options domain.ConversionOptions
}

type previewRequest struct {
	File    []byte
	Options domain.PreviewOptions
}

type optimizeRequest struct {
	File    []byte
	Quality int
}

type thumbnailRequest struct {
	File   []byte
	Size   int
	Format string
}

type batchRequest struct {
	Files   [][]byte
	Options domain.ConversionOptions
}

// uploadPart is one uploaded file, in the order the client sent it.
type uploadPart struct {
	Field    string
	Filename string
	Data     []byte
}

// uploadForm is a parsed multipart body. Values keep the first occurrence of
// each field and parts keep their upload order.
type uploadForm struct {
	values map[string][]string
	parts  []uploadPart
}

// parseUpload streams the multipart body under the upload cap. Parts are read
// in sequence so batch results line up with the uploaded files.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	reader, err := r.MultipartReader()
	if err != nil {
		return uploadForm{}, uploadError(err)
	}

	form := uploadForm{values: make(map[string][]string)}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return uploadForm{}, uploadError(err)
		}

		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return uploadForm{}, uploadError(err)
		}

		if part.FileName() == "" {
			form.values[part.FormName()] = append(form.values[part.FormName()], string(data))
			continue
		}
		form.parts = append(form.parts, uploadPart{
			Field:    part.FormName(),
			Filename: part.FileName(),
			Data:     data,
		})
	}
	return form, nil
}

func uploadError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return &domain.Error{Kind: domain.KindValidation, Op: "parse_upload", Message: "file too large", Cause: err}
	}
	return &domain.Error{Kind: domain.KindValidation, Op: "parse_upload", Message: "Invalid multipart form", Cause: err}
}

func (f uploadForm) value(name string) string {
	values := f.values[name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func (f uploadForm) has(name string) bool {
	return len(f.values[name]) > 0
}

// files returns the parts of the file field, or every uploaded part when the
// client used other field names. Upload order is preserved either way.
func (f uploadForm) files() []uploadPart {
	var named []uploadPart
	for _, part := range f.parts {
		if part.Field == fileField {
			named = append(named, part)
		}
	}
	if len(named) > 0 {
		return named
	}
	return f.parts
}

func (f uploadForm) intField(name string) (int, error) {
	raw := f.value(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.Validationf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// boolField is true only for "true" or "1". An absent field yields fallback.
func (f uploadForm) boolField(name string, fallback bool) bool {
	if !f.has(name) {
		return fallback
	}
	raw := f.value(name)
	return raw == "true" || raw == "1"
}

// source returns the uploaded file, or the object named by objectKey when
// object storage is configured.
func (s *Server) source(ctx context.Context, f uploadForm) ([]byte, error) {
	if parts := f.files(); len(parts) > 0 && len(parts[0].Data) > 0 {
		return parts[0].Data, nil
	}

	key := f.value(objectKeyField)
	if key == "" || s.objects == nil {
		return nil, domain.Validationf("No file provided")
	}

	data, err := s.objects.Fetch(ctx, key)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, storage.ErrObjectNotFound):
		return nil, &domain.Error{Kind: domain.KindValidation, Op: "fetch_object", Message: "object not found", Cause: err}
	case errors.Is(err, pipeline.ErrObjectSourceDisabled):
		return nil, domain.Validationf("No file provided")
	case errors.Is(err, pipeline.ErrInvalidObjectKey):
		return nil, &domain.Error{Kind: domain.KindValidation, Op: "fetch_object", Message: "invalid object key", Cause: err}
	default:
		return nil, domain.Wrap(domain.KindInternal, "fetch_object", "Unable to read source object", err)
	}
}

// sniff rejects payloads whose content type is recognised and is not an
// image. Unrecognised content is left to the codec probe.
func sniff(data []byte) (string, error) {
	mtype := mimetype.Detect(data)
	mime := mtype.String()
	if mtype.Is("application/octet-stream") || strings.HasPrefix(mime, "image/") {
		return mime, nil
	}
	return mime, domain.InvalidImage("Invalid image file", fmt.Errorf("uploaded content is %s", mime))
}

func (s *Server) parseConvertRequest(ctx context.Context, f uploadForm) (convertRequest, error) {
	file, err := s.source(ctx, f)
	if err != nil {
		return convertRequest{}, err
	}

	format := f.value("format")
	if format == "" {
		return convertRequest{}, domain.Validationf("Format parameter is required")
	}

	opts, err := s.parseConversionOptions(f)
	if err != nil {
		return convertRequest{}, err
	}
	opts.Format = format

	return convertRequest{File: file, Options: opts}, nil
}

func (s *Server) parseConversionOptions(f uploadForm) (domain.ConversionOptions, error) {
	quality, err := f.intField("quality")
	if err != nil {
		return domain.ConversionOptions{}, err
	}
	if quality == 0 {
		quality = s.opts.ConvertQuality
	}
	width, err := f.intField("width")
	if err != nil {
		return domain.ConversionOptions{}, err
	}
	height, err := f.intField("height")
	if err != nil {
		return domain.ConversionOptions{}, err
	}
	fit, err := domain.ParseFitMode(f.value("fit"))
	if err != nil {
		return domain.ConversionOptions{}, err
	}

	return domain.ConversionOptions{
		Quality:  quality,
		Width:    width,
		Height:   height,
		Fit:      fit,
		Optimize: domain.Bool(f.boolField("optimize", true)),
	}, nil
}

func (s *Server) parsePreviewRequest(ctx context.Context, f uploadForm, userAgent string) (previewRequest, error) {
	file, err := s.source(ctx, f)
	if err != nil {
		return previewRequest{}, err
	}

	opts := s.opts.Preview
	fields := []struct {
		name   string
		target *int
	}{
		{"quality", &opts.Quality},
		{"maxWidth", &opts.MaxWidth},
		{"maxHeight", &opts.MaxHeight},
	}
	for _, field := range fields {
		n, err := f.intField(field.name)
		if err != nil {
			return previewRequest{}, err
		}
		if n > 0 {
			*field.target = n
		}
	}

	opts.DetectBrowser = f.boolField("detectBrowser", false)
	if opts.DetectBrowser {
		opts.UserAgent = userAgent
	}

	return previewRequest{File: file, Options: opts}, nil
}

func (s *Server) parseOptimizeRequest(ctx context.Context, f uploadForm) (optimizeRequest, error) {
	file, err := s.source(ctx, f)
	if err != nil {
		return optimizeRequest{}, err
	}
	quality, err := f.intField("quality")
	if err != nil {
		return optimizeRequest{}, err
	}
	if quality == 0 {
		quality = s.opts.ConvertQuality
	}
	return optimizeRequest{File: file, Quality: quality}, nil
}

func (s *Server) parseThumbnailRequest(ctx context.Context, f uploadForm) (thumbnailRequest, error) {
	file, err := s.source(ctx, f)
	if err != nil {
		return thumbnailRequest{}, err
	}
	size, err := f.intField("size")
	if err != nil {
		return thumbnailRequest{}, err
	}
	return thumbnailRequest{File: file, Size: size, Format: f.value("format")}, nil
}

func (s *Server) parseBatchRequest(f uploadForm) (batchRequest, error) {
	parts := f.files()
	if len(parts) == 0 {
		return batchRequest{}, domain.Validationf("No file provided")
	}
	if len(parts) > maxBatchFiles {
		return batchRequest{}, domain.Validationf("at most %d files per batch", maxBatchFiles)
	}

	format := f.value("format")
	if format == "" {
		return batchRequest{}, domain.Validationf("Format parameter is required")
	}

	opts, err := s.parseConversionOptions(f)
	if err != nil {
		return batchRequest{}, err
	}
	opts.Format = format

	files := make([][]byte, 0, len(parts))
	for _, part := range parts {
		files = append(files, part.Data)
	}

	return batchRequest{Files: files, Options: opts}, nil
}
