package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/id"
	"github.com/dunamismax/pixelconvert/internal/pipeline"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := s.parseUpload(w, r)
	if err != nil {
		s.fail(w, r, "convert", err)
		return
	}

	req, err := s.parseConvertRequest(ctx, form)
	if err != nil {
		s.fail(w, r, "convert", err)
		return
	}
	if err := s.validateImage(ctx, req.File); err != nil {
		s.fail(w, r, "convert", err)
		return
	}

	start := s.now()
	result := s.processor.Convert(ctx, req.File, req.Options)
	s.observe(ctx, "convert", req.Options.Format, len(req.File), result, s.now().Sub(start))
	if !result.Success {
		s.fail(w, r, "convert", result.Err)
		return
	}

	writeJSON(w, http.StatusOK, newConversionResponse(result))
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := s.parseUpload(w, r)
	if err != nil {
		s.fail(w, r, "metadata", err)
		return
	}

	file, err := s.source(ctx, form)
	if err != nil {
		s.fail(w, r, "metadata", err)
		return
	}

	meta, err := s.readMetadata(ctx, file)
	if err != nil {
		if domain.KindOf(err) == domain.KindInvalidImage {
			writeError(w, http.StatusBadRequest, "Failed to read image metadata")
			return
		}
		s.fail(w, r, "metadata", err)
		return
	}

	writeJSON(w, http.StatusOK, metadataResponse{Success: true, Metadata: meta})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := s.parseUpload(w, r)
	if err != nil {
		s.fail(w, r, "preview", err)
		return
	}

	req, err := s.parsePreviewRequest(ctx, form, r.UserAgent())
	if err != nil {
		s.fail(w, r, "preview", err)
		return
	}
	if err := s.validateImage(ctx, req.File); err != nil {
		s.fail(w, r, "preview", err)
		return
	}

	start := s.now()
	decision, err := s.previewer.Decide(ctx, req.File, req.Options)
	if err != nil {
		if domain.KindOf(err) == domain.KindInvalidImage {
			writeError(w, http.StatusBadRequest, "Unable to read image metadata")
			return
		}
		s.metrics.observeConversion("preview", string(domain.FormatJPEG), false, len(req.File), 0)
		s.fail(w, r, "preview", err)
		return
	}

	s.metrics.observePreview(string(decision.Browser), decision.Converted)
	if decision.Converted {
		result := domain.ConversionResult{Success: true, Metadata: &decision.Metadata}
		s.observe(ctx, "preview", string(domain.FormatJPEG), len(req.File), result, s.now().Sub(start))
	}

	writeJSON(w, http.StatusOK, previewResponse{
		Success: true,
		Result: previewPayload{
			Image:     decision.Image,
			Metadata:  decision.Metadata,
			Converted: decision.Converted,
			Browser:   decision.Browser,
		},
	})
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := s.parseUpload(w, r)
	if err != nil {
		s.fail(w, r, "optimize", err)
		return
	}

	req, err := s.parseOptimizeRequest(ctx, form)
	if err != nil {
		s.fail(w, r, "optimize", err)
		return
	}
	if err := s.validateImage(ctx, req.File); err != nil {
		s.fail(w, r, "optimize", err)
		return
	}

	start := s.now()
	result := s.processor.Optimize(ctx, req.File, req.Quality)
	format := ""
	if result.Metadata != nil {
		format = result.Metadata.Format
	}
	s.observe(ctx, "optimize", format, len(req.File), result, s.now().Sub(start))
	if !result.Success {
		s.fail(w, r, "optimize", result.Err)
		return
	}

	writeJSON(w, http.StatusOK, newConversionResponse(result))
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := s.parseUpload(w, r)
	if err != nil {
		s.fail(w, r, "thumbnail", err)
		return
	}

	req, err := s.parseThumbnailRequest(ctx, form)
	if err != nil {
		s.fail(w, r, "thumbnail", err)
		return
	}
	if err := s.validateImage(ctx, req.File); err != nil {
		s.fail(w, r, "thumbnail", err)
		return
	}

	start := s.now()
	result := s.processor.Thumbnail(ctx, req.File, req.Size, req.Format)
	format := req.Format
	if format == "" {
		format = string(domain.DefaultThumbnailFormat)
	}
	s.observe(ctx, "thumbnail", format, len(req.File), result, s.now().Sub(start))
	if !result.Success {
		s.fail(w, r, "thumbnail", result.Err)
		return
	}

	writeJSON(w, http.StatusOK, newConversionResponse(result))
}

// handleBatch converts every uploaded file with the same options. Item
// failures are reported in place and do not fail the request.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := s.parseUpload(w, r)
	if err != nil {
		s.fail(w, r, "batch", err)
		return
	}

	req, err := s.parseBatchRequest(form)
	if err != nil {
		s.fail(w, r, "batch", err)
		return
	}

	items := make([]pipeline.BatchItem, len(req.Files))
	for i, file := range req.Files {
		items[i] = pipeline.BatchItem{Input: file, Options: req.Options}
	}

	start := s.now()
	results := s.processor.ConvertBatch(ctx, items)
	elapsed := s.now().Sub(start)
	for i, result := range results {
		s.observe(ctx, "batch", req.Options.Format, len(req.Files[i]), result, elapsed)
	}

	writeJSON(w, http.StatusOK, batchResponse{Success: true, Results: results})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Message:   "Image Converter API is running",
		Version:   Version,
		Engine:    s.opts.Engine,
		Timestamp: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		writeError(w, http.StatusNotFound, "usage accounting is disabled")
		return
	}

	totals, err := s.usage.Totals(r.Context())
	if err != nil {
		s.fail(w, r, "usage", err)
		return
	}

	writeJSON(w, http.StatusOK, usageResponse{Success: true, Usage: totals})
}

// validateImage rejects content that is sniffed as a non-image type and
// anything the codec cannot probe.
func (s *Server) validateImage(ctx context.Context, data []byte) error {
	mime, err := sniff(data)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("upload.mime", mime))
	if err != nil {
		return err
	}
	if !s.processor.IsValidImage(data) {
		return domain.InvalidImage("Invalid image file", nil)
	}
	return nil
}

func (s *Server) readMetadata(ctx context.Context, data []byte) (domain.ImageMetadata, error) {
	if _, err := sniff(data); err != nil {
		return domain.ImageMetadata{}, err
	}
	return s.processor.ReadMetadata(ctx, data)
}

// observe records metrics for one conversion and, on success, its usage log.
// A usage store failure is logged and never changes the response.
func (s *Server) observe(ctx context.Context, endpoint, format string, bytesIn int, result domain.ConversionResult, elapsed time.Duration) {
	bytesOut := 0
	if result.Metadata != nil {
		bytesOut = result.Metadata.Size
	}
	s.metrics.observeConversion(endpoint, format, result.Success, bytesIn, bytesOut)

	if !result.Success || s.usage == nil {
		return
	}

	requestID := requestIDFrom(ctx)
	usage := domain.NewUsageLog(id.New(), endpoint, requestID, bytesIn, result, elapsed)
	if err := s.usage.Record(ctx, usage); err != nil {
		s.logger.Printf("record usage failed request_id=%s endpoint=%s err=%v", requestID, endpoint, err)
	}
}
