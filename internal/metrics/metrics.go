// Package metrics provides Prometheus metrics for the MoldQuote service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moldquote_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moldquote_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moldquote_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	// Evaluation metrics
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moldquote_evaluations_total",
			Help: "Tool evaluations by outcome",
		},
		[]string{"outcome"},
	)

	CalculationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moldquote_calculation_errors_total",
			Help: "Calculation requests rejected by kind",
		},
		[]string{"calculation", "kind"},
	)

	// Export metrics
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moldquote_exports_total",
			Help: "Generated documents by format",
		},
		[]string{"format"},
	)

	ExportBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moldquote_export_bytes_total",
			Help: "Bytes of generated documents by format",
		},
		[]string{"format"},
	)
)

// Evaluation outcomes.
const (
	OutcomeFits    = "fits"
	OutcomeNoFit   = "no_fit"
	OutcomeUnknown = "unknown"
	OutcomeError   = "error"
)

// Recorder records service metrics.
type Recorder struct{}

// NewRecorder creates a metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordRequest records a served HTTP request.
func (r *Recorder) RecordRequest(method, route string, status int, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRateLimited counts a rejected request.
func (r *Recorder) RecordRateLimited() {
	RateLimited.Inc()
}

// RecordEvaluation records a tool evaluation. fits is nil when the verdict
// is unknown.
func (r *Recorder) RecordEvaluation(fits *bool, err error) {
	outcome := OutcomeUnknown
	switch {
	case err != nil:
		outcome = OutcomeError
	case fits != nil && *fits:
		outcome = OutcomeFits
	case fits != nil:
		outcome = OutcomeNoFit
	}
	EvaluationsTotal.WithLabelValues(outcome).Inc()
}

// RecordCalculationError records a rejected calculation.
func (r *Recorder) RecordCalculationError(calculation, kind string) {
	CalculationErrors.WithLabelValues(calculation, kind).Inc()
}

// RecordExport records a generated document.
func (r *Recorder) RecordExport(format string, bytes int) {
	ExportsTotal.WithLabelValues(format).Inc()
	ExportBytes.WithLabelValues(format).Add(float64(bytes))
}

// Timer helps measure durations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
