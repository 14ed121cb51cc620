// Package metrics provides Prometheus metrics for the RCM API.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	VisitsRecorded    prometheus.Counter
	VisitsRejected    *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	TasksEnqueued     *prometheus.CounterVec
	AlertsComputed    prometheus.Counter
}

// New creates and registers all metrics against the default registry.
func New() *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rcm_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rcm_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"method", "path"}),
		VisitsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rcm_visits_recorded_total",
			Help: "Total visit usage events recorded",
		}),
		VisitsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rcm_visits_rejected_total",
			Help: "Visit recordings rejected, by reason",
		}, []string{"reason"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rcm_authorization_transitions_total",
			Help: "Authorization status transitions applied",
		}, []string{"from", "to"}),
		TasksEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rcm_tasks_enqueued_total",
			Help: "Follow-up tasks enqueued, by code",
		}, []string{"code"}),
		AlertsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rcm_expiration_alerts_computed_total",
			Help: "Expiration alerts computed",
		}),
	}

	prometheus.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.VisitsRecorded,
		m.VisitsRejected,
		m.StatusTransitions,
		m.TasksEnqueued,
		m.AlertsComputed,
	)

	return m
}

// Middleware returns echo middleware that records request counts and latency.
// The route template (not the raw path) is used to keep cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			m.RequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler exposes the Prometheus text endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
