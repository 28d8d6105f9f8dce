package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	termsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_terms_total",
			Help: "Search terms resolved, by strategy and outcome.",
		},
		[]string{"strategy", "outcome"},
	)
	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crawler_fetch_duration_seconds",
			Help:    "Histogram of search request durations including retries.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"outcome", "status"},
	)
	fetchRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_fetch_retries_total",
			Help: "Extra attempts made after timed out search requests.",
		},
	)
	productsMerged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_products_merged_total",
			Help: "Products upserted, by strategy.",
		},
		[]string{"strategy"},
	)
	entriesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_entries_dropped_total",
			Help: "Catalog entries not merged, by strategy and reason.",
		},
		[]string{"strategy", "reason"},
	)
	cursorWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_cursor_writes_total",
			Help: "Cursor checkpoints, by strategy and result.",
		},
		[]string{"strategy", "result"},
	)
)

func init() {
	prometheus.MustRegister(termsTotal)
	prometheus.MustRegister(fetchDuration)
	prometheus.MustRegister(fetchRetries)
	prometheus.MustRegister(productsMerged)
	prometheus.MustRegister(entriesDropped)
	prometheus.MustRegister(cursorWrites)
}

// RecordTerm counts one resolved search term.
func RecordTerm(strategy, outcome string) {
	termsTotal.WithLabelValues(strategy, outcome).Inc()
}

// RecordFetch records one search request: outcome, status class, retries and latency.
func RecordFetch(outcome string, statusCode, attempts int, duration time.Duration) {
	fetchDuration.WithLabelValues(outcome, classifyStatus(statusCode)).Observe(duration.Seconds())
	if attempts > 1 {
		fetchRetries.Add(float64(attempts - 1))
	}
}

func RecordMerged(strategy string, products int) {
	productsMerged.WithLabelValues(strategy).Add(float64(products))
}

func RecordDropped(strategy, reason string, n int) {
	if n > 0 {
		entriesDropped.WithLabelValues(strategy, reason).Add(float64(n))
	}
}

func RecordCursorWrite(strategy string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cursorWrites.WithLabelValues(strategy, result).Inc()
}

// classifyStatus maps an HTTP status code to its class label.
func classifyStatus(statusCode int) string {
	if statusCode == 0 {
		return "none"
	} else if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler serves the Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
