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
		[]string{"service", "method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"service", "method", "endpoint"},
	)

	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by service and outcome",
		},
		[]string{"service", "outcome"},
	)

	ExamStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_started_total",
			Help: "Exam start requests, split into new assignments and resumes",
		},
		[]string{"kind"},
	)

	ExamSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_submitted_total",
			Help: "Submitted exams",
		},
	)

	ExamScoreRatio = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exam_score_ratio",
			Help:    "Score divided by number of assigned questions",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	TabSwitchEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tab_switch_events_total",
			Help: "Tab switch reports received from exam clients",
		},
	)

	MonitorClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitor_clients",
			Help: "Admin consoles connected to the live monitor",
		},
	)

	MonitorEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_events_total",
			Help: "Events published to the live monitor",
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

// Init 重复调用安全（测试中会多次构建应用）
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			LoginAttempts,
			ExamStarted,
			ExamSubmitted,
			ExamScoreRatio,
			TabSwitchEvents,
			MonitorClients,
			MonitorEvents,
		)
	})
}

func MetricsMiddleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			service,
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			service,
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
