package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var knownRoutes = map[string]struct{}{
	"/convert":   {},
	"/metadata":  {},
	"/preview":   {},
	"/optimize":  {},
	"/thumbnail": {},
	"/batch":     {},
	"/health":    {},
	"/usage":     {},
	"/metrics":   {},
}

type metrics struct {
	registry         *prometheus.Registry
	routePrefix      string
	requestTotal     *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	conversionsTotal *prometheus.CounterVec
	bytesIn          *prometheus.CounterVec
	bytesOut         *prometheus.CounterVec
	previewDecisions *prometheus.CounterVec
}

func newMetrics(routePrefix string) *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry:    registry,
		routePrefix: routePrefix,
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_api_requests_total",
			Help: "Total HTTP requests handled by the API.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pixelconvert_api_request_duration_seconds",
			Help:    "API request latency in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		conversionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_conversions_total",
			Help: "Total conversions by endpoint, target format and outcome.",
		}, []string{"endpoint", "format", "outcome"}),
		bytesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_conversion_bytes_in_total",
			Help: "Source bytes submitted for conversion.",
		}, []string{"endpoint"}),
		bytesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_conversion_bytes_out_total",
			Help: "Encoded bytes returned by successful conversions.",
		}, []string{"endpoint"}),
		previewDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelconvert_preview_decisions_total",
			Help: "Preview decisions by detected browser and whether the source was converted.",
		}, []string{"browser", "converted"}),
	}
	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.conversionsTotal,
		m.bytesIn,
		m.bytesOut,
		m.previewDecisions,
	)
	return m
}

func (m *metrics) metricsHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := m.routeLabel(r.URL.Path)
		status := statusLabel(recorder.status)

		m.requestTotal.WithLabelValues(r.Method, route, status).Inc()
		m.requestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

func (m *metrics) observeConversion(endpoint, format string, success bool, bytesIn, bytesOut int) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.conversionsTotal.WithLabelValues(endpoint, formatLabel(format), outcome).Inc()
	m.bytesIn.WithLabelValues(endpoint).Add(float64(bytesIn))
	if success {
		m.bytesOut.WithLabelValues(endpoint).Add(float64(bytesOut))
	}
}

func (m *metrics) observePreview(browser string, converted bool) {
	if browser == "" {
		browser = "undetected"
	}
	m.previewDecisions.WithLabelValues(browser, strconv.FormatBool(converted)).Inc()
}

func statusLabel(status int) string {
	return strconv.Itoa(status)
}

// formatLabel folds client supplied format names into the supported set so
// arbitrary input cannot grow label cardinality.
func formatLabel(format string) string {
	parsed, err := domain.ParseImageFormat(format)
	if err != nil {
		return "invalid"
	}
	return string(parsed)
}

func (m *metrics) routeLabel(path string) string {
	if m.routePrefix != "" {
		path = strings.TrimPrefix(path, m.routePrefix)
	}
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	return "other"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
