// Package metrics exposes Prometheus collectors for the HTTP layer and
// the report workflow.
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
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	reportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Total number of reports generated",
		},
		[]string{"source"},
	)

	treeEdits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questionnaire_tree_edits_total",
			Help: "Total number of questionnaire tree edits",
		},
		[]string{"operation", "result"},
	)

	autosavesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autosaves_persisted_total",
			Help: "Autosave drafts handled by the persistence worker",
		},
		[]string{"result"},
	)

	previewSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "preview_sessions_active",
			Help: "Number of open live preview websockets",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count, latency and in-flight requests.
// Requests are labelled by route template, so ids never reach a label.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// --- Business metric helpers ---

// RecordReport records a generated report. source is "stored", "preview" or "live".
func RecordReport(source string) {
	reportsGenerated.WithLabelValues(source).Inc()
}

// RecordTreeEdit records a tree edit and whether it applied.
func RecordTreeEdit(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	treeEdits.WithLabelValues(operation, result).Inc()
}

// RecordAutosave records the outcome of a persisted draft: "saved", "stale" or "failed".
func RecordAutosave(result string) {
	autosavesPersisted.WithLabelValues(result).Inc()
}

// PreviewOpened increments the live preview gauge.
func PreviewOpened() { previewSessions.Inc() }

// PreviewClosed decrements the live preview gauge.
func PreviewClosed() { previewSessions.Dec() }
