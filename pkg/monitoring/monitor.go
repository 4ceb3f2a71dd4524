package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	AttemptsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_attempts_started_total",
			Help: "Exam attempts created or resumed",
		},
		[]string{"mode", "resumed"},
	)

	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_state_transitions_total",
			Help: "State machine transitions applied",
		},
		[]string{"scope", "to"},
	)

	ConcurrencyConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_concurrency_conflicts_total",
			Help: "Operations that lost the per-attempt serialization race",
		},
		[]string{"reason"},
	)

	SectionBands = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exam_section_band",
			Help:    "Band scores of submitted sections",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		},
		[]string{"section_type"},
	)

	ExpirySweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exam_expiry_sweep_duration_seconds",
			Help:    "Duration of one overdue-attempt sweep",
			Buckets: prometheus.DefBuckets,
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			AttemptsStarted,
			Transitions,
			ConcurrencyConflicts,
			SectionBands,
			ExpirySweepDuration,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
