package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthreport_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthreport_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	provenanceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthreport_provenance_fetch_duration_seconds",
			Help:    "Duration of a single provenance read by source and outcome",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"source", "outcome"}, // outcome: ok, empty, error, timeout
	)

	statusOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthreport_status_outcomes_total",
			Help: "Resolved lifecycle states",
		},
		[]string{"status"},
	)

	pendingObservations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "healthreport_pending_observations_total",
			Help: "Observations of unregistered partner/facility pairs",
		},
	)
)

// ObserveProvenanceFetch records the latency of one provenance read.
func ObserveProvenanceFetch(source, outcome string, d time.Duration) {
	provenanceFetchDuration.WithLabelValues(source, outcome).Observe(d.Seconds())
}

// IncStatusOutcome counts one resolved lifecycle state.
func IncStatusOutcome(status string) {
	statusOutcomes.WithLabelValues(status).Inc()
}

// IncPendingObservation counts one unregistered pair observation.
func IncPendingObservation() {
	pendingObservations.Inc()
}

// Middleware records request counts and latencies using the route path, not
// the raw URL, to keep label cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			method := c.Request().Method

			httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes the default registry for scraping.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
