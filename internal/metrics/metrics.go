// Package metrics provides Prometheus metrics and HTTP middleware for the
// policyrag server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LatencyBuckets span fast retrievals up to slow generations.
var LatencyBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60}

var (
	// RequestsTotal counts HTTP requests by endpoint and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policyrag_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "policyrag_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: LatencyBuckets,
		},
		[]string{"endpoint"},
	)

	// RetrievedHits records how many hits each question produced.
	RetrievedHits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "policyrag_retrieved_hits",
			Help:    "Hits returned per question",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	// GenerationErrorsTotal counts failed generation calls by error code.
	GenerationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policyrag_generation_errors_total",
			Help: "Failed answer generations",
		},
		[]string{"code"},
	)

	// CollectionDocuments reports the last observed document count.
	CollectionDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "policyrag_collection_documents",
			Help: "Documents in the collection",
		},
		[]string{"collection"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RetrievedHits,
		GenerationErrorsTotal,
		CollectionDocuments,
	)
}

// Middleware records request count and duration under the endpoint label.
func Middleware(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.status/100) + "xx"
		RequestsTotal.WithLabelValues(endpoint, status).Inc()
		RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

// statusWriter captures the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}
