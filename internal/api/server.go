package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/id"
	"github.com/dunamismax/pixelconvert/internal/pipeline"
	"github.com/dunamismax/pixelconvert/internal/preview"
	"github.com/dunamismax/pixelconvert/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	Version         = "1.0.0"
	requestIDHeader = "X-Request-ID"
)

type Processor interface {
	ReadMetadata(ctx context.Context, input []byte) (domain.ImageMetadata, error)
	IsValidImage(input []byte) bool
	Convert(ctx context.Context, input []byte, opts domain.ConversionOptions) domain.ConversionResult
	Optimize(ctx context.Context, input []byte, quality int) domain.ConversionResult
	Thumbnail(ctx context.Context, input []byte, size int, format string) domain.ConversionResult
	ConvertBatch(ctx context.Context, items []pipeline.BatchItem) []domain.ConversionResult
}

type Previewer interface {
	Decide(ctx context.Context, input []byte, opts domain.PreviewOptions) (preview.Decision, error)
}

type objectFetcher interface {
	Fetch(ctx context.Context, objectKey string) ([]byte, error)
}

// Options carries the transport settings. Zero values fall back to the
// domain defaults.
type Options struct {
	RoutePrefix    string
	MaxUploadBytes int64
	ConvertQuality int
	Preview        domain.PreviewOptions
	Engine         string
}

type Server struct {
	logger    *log.Logger
	processor Processor
	previewer Previewer
	usage     store.UsageStore
	objects   objectFetcher
	opts      Options
	metrics   *metrics
	tracer    trace.Tracer
	mux       *http.ServeMux
	now       func() time.Time
}

// NewServer wires the HTTP surface. usage and objects may be nil, which
// disables usage accounting and the objectKey source respectively.
func NewServer(logger *log.Logger, processor Processor, previewer Previewer, usage store.UsageStore, objects objectFetcher, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	if opts.ConvertQuality <= 0 {
		opts.ConvertQuality = domain.DefaultQuality
	}
	opts.Preview = opts.Preview.WithDefaults()
	opts.RoutePrefix = strings.TrimSuffix(opts.RoutePrefix, "/")

	s := &Server{
		logger:    logger,
		processor: processor,
		previewer: previewer,
		usage:     usage,
		objects:   objects,
		opts:      opts,
		metrics:   newMetrics(opts.RoutePrefix),
		tracer:    otel.Tracer("pixelconvert/api"),
		mux:       http.NewServeMux(),
		now:       time.Now,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.metrics.withHTTPMetrics(s.withTracing(s.withRequestID(s.mux)))
}

func (s *Server) routes() {
	s.handle("/convert", http.MethodPost, "Content-Type", s.handleConvert)
	s.handle("/metadata", http.MethodPost, "Content-Type", s.handleMetadata)
	s.handle("/preview", http.MethodPost, "Content-Type, User-Agent", s.handlePreview)
	s.handle("/optimize", http.MethodPost, "Content-Type", s.handleOptimize)
	s.handle("/thumbnail", http.MethodPost, "Content-Type", s.handleThumbnail)
	s.handle("/batch", http.MethodPost, "Content-Type", s.handleBatch)
	s.handle("/health", http.MethodGet, "Content-Type", s.handleHealth)
	s.handle("/usage", http.MethodGet, "Content-Type", s.handleUsage)

	metricsHandler := s.metrics.metricsHandler()
	s.mux.Handle("GET /metrics", metricsHandler)
	if s.opts.RoutePrefix != "" {
		s.mux.Handle("GET "+s.opts.RoutePrefix+"/metrics", metricsHandler)
	}
}

// handle registers path, and its prefixed alias, behind CORS preflight and
// method checks.
func (s *Server) handle(path, method, allowHeaders string, h http.HandlerFunc) {
	wrapped := withCORS(method, allowHeaders, onlyMethod(method, h))
	s.mux.Handle(path, wrapped)
	if s.opts.RoutePrefix != "" {
		s.mux.Handle(s.opts.RoutePrefix+path, wrapped)
	}
}

func withCORS(method, allowHeaders string, next http.Handler) http.Handler {
	allowMethods := method + ", OPTIONS"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Expose-Headers", requestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func onlyMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use "+method+".")
			return
		}
		next(w, r)
	}
}

type requestIDKey struct{}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if !id.Valid(requestID) {
			requestID = id.New()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

// statusForError maps the error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusBadRequest
	}

	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindInvalidImage:
		return http.StatusBadRequest
	case domain.KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a failure response and logs server errors.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Printf("%s failed request_id=%s err=%v", op, requestIDFrom(r.Context()), err)
	}

	message := domain.Message(err)
	if status >= http.StatusInternalServerError && message == "" {
		message = "Internal server error"
	}
	writeError(w, status, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
