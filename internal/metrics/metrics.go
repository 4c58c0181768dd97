// Package metrics exposes Prometheus collectors for the querydesk service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	submissionsTotal           *prometheus.CounterVec
	matchesReturnedTotal       *prometheus.CounterVec
	rowsSkippedTotal           *prometheus.CounterVec
	flagsTotal                 *prometheus.CounterVec
	ratingLookupsTotal         *prometheus.CounterVec
	eventsPublishedTotal       *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		submissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querydesk_submissions_total",
				Help: "Query submissions, labeled by outcome (created, updated, rejected, failed).",
			},
			[]string{"outcome"},
		)

		matchesReturnedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querydesk_matches_returned_total",
				Help: "Matching rows returned by the match finder, labeled by policy.",
			},
			[]string{"policy"},
		)

		rowsSkippedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querydesk_rows_skipped_total",
				Help: "Rows skipped while matching, labeled by reason.",
			},
			[]string{"reason"},
		)

		flagsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querydesk_flags_total",
				Help: "Flag requests, labeled by result.",
			},
			[]string{"result"},
		)

		ratingLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querydesk_rating_lookups_total",
				Help: "QA rating lookups, labeled by status (rated, awaiting, missing).",
			},
			[]string{"status"},
		)

		eventsPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querydesk_events_published_total",
				Help: "Submission events handed to the publisher, labeled by result.",
			},
			[]string{"result"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	Init()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		ObserveHTTPRequest(r.Method, route, rec.statusCode, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveSubmission counts one submission outcome.
func ObserveSubmission(outcome string) {
	Init()
	submissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveMatches adds n returned matches for policy.
func ObserveMatches(policy string, n int) {
	Init()
	matchesReturnedTotal.WithLabelValues(policy).Add(float64(n))
}

// ObserveSkippedRow counts a row skipped for reason.
func ObserveSkippedRow(reason string) {
	Init()
	rowsSkippedTotal.WithLabelValues(reason).Inc()
}

// ObserveFlag counts one flag request result.
func ObserveFlag(result string) {
	Init()
	flagsTotal.WithLabelValues(result).Inc()
}

// ObserveRatingLookup counts one rating lookup by status.
func ObserveRatingLookup(status string) {
	Init()
	ratingLookupsTotal.WithLabelValues(status).Inc()
}

// ObservePublish counts one event publish attempt.
func ObservePublish(result string) {
	Init()
	eventsPublishedTotal.WithLabelValues(result).Inc()
}
