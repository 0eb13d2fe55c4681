// Package metrics holds the Prometheus collectors for the HTTP layer and the
// CSV ingestion pipeline. Collectors register on the default registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// IngestRows counts processed CSV rows by outcome status.
	IngestRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csv_ingest_rows_total",
			Help: "CSV rows processed, by outcome",
		},
		[]string{"status"},
	)

	// IngestBatches counts uploads by result: ok, empty, malformed, cancelled.
	IngestBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csv_ingest_batches_total",
			Help: "CSV uploads processed, by result",
		},
		[]string{"result"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "csv_ingest_duration_seconds",
			Help:    "Wall time to process one CSV upload",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	LowStockAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "low_stock_alerts_total",
			Help: "Rows or edits that left an item below its minimum threshold",
		},
	)

	// NotificationFailures counts low-stock notifications that could not be
	// delivered or enqueued, by stage (send, enqueue, dead_letter).
	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Low-stock notifications that failed",
		},
		[]string{"stage"},
	)
)

// Middleware records request count and latency per route template. Unmatched
// routes share the "unmatched" path label to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		RequestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
		RequestDurationHistogram.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
