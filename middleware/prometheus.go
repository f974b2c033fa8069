package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "code"},
	)

	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "code"},
	)

	requestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method", "path"},
	)

	responseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "response_size_bytes",
			Help:    "Size of HTTP responses in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path", "code"},
	)

	errorRate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "error_rate_total",
			Help: "Total number of HTTP 5xx responses",
		},
		[]string{"method", "path", "code"},
	)
)

// unmatchedRoute labels requests that hit no registered route, so
// arbitrary URLs cannot blow up label cardinality.
const unmatchedRoute = "unmatched"

// shouldCollectMetrics excludes probe and scrape traffic
func shouldCollectMetrics(path, metricsPath string) bool {
	for _, skip := range []string{"/health", "/ready", metricsPath} {
		if strings.HasPrefix(path, skip) {
			return false
		}
	}
	return true
}

// PrometheusMiddleware records RED metrics per route template (e.g. /api/v1/users/:id)
func PrometheusMiddleware(metricsPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !shouldCollectMetrics(c.Request.URL.Path, metricsPath) {
			c.Next()
			return
		}

		start := time.Now()
		method := c.Request.Method
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		inFlight := requestsInFlight.WithLabelValues(method, route)
		inFlight.Inc()
		defer inFlight.Dec()

		c.Next()

		status := c.Writer.Status()
		code := strconv.Itoa(status)
		requestDuration.WithLabelValues(method, route, code).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(method, route, code).Inc()
		responseSize.WithLabelValues(method, route, code).Observe(float64(c.Writer.Size()))
		if status >= 500 {
			errorRate.WithLabelValues(method, route, code).Inc()
		}
	}
}
