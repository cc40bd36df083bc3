package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	LeadsCreated   prometheus.Counter
	LeadsCompleted *prometheus.CounterVec
	LoginAttempts  *prometheus.CounterVec
	EventsMined    prometheus.Gauge
	StateConflicts prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		LeadsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Total number of leads submitted through the public form",
		}),
		LeadsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_completed_total",
				Help: "Total number of leads closed, by outcome",
			},
			[]string{"outcome"},
		),
		LoginAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Total number of admin login attempts, by result",
			},
			[]string{"result"},
		),
		EventsMined: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "important_events_tracked",
			Help: "Important events currently tracked (auto and manual)",
		}),
		StateConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "state_update_conflicts_total",
			Help: "Lost optimistic-concurrency races on the state document",
		}),
	}
}

// Middleware returns an Echo middleware recording request count and latency.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			labels := []string{c.Request().Method, c.Path(), strconv.Itoa(status)}
			m.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
			m.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
