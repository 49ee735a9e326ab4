package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bump_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bump_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bump_notifications_total",
			Help: "Candidate notification events by kind and gate outcome.",
		},
		[]string{"kind", "outcome"},
	)
	intentUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bump_intent_updates_total",
			Help: "Friend link intent writes by new value.",
		},
		[]string{"intent"},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bump_notification_sessions",
			Help: "Number of live notification sessions.",
		},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bump_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	feedEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bump_friend_link_changes_total",
			Help: "Friend link change events published or received.",
		},
		[]string{"direction"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bump_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		notificationsTotal,
		intentUpdatesTotal,
		activeSessions,
		wsActiveConnections,
		feedEventsTotal,
		amqpPublishErrorsTotal,
	)
}

// HTTPMetricsMiddleware 记录请求数与耗时
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler /metrics
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func IncNotification(kind, outcome string) {
	notificationsTotal.WithLabelValues(kind, outcome).Inc()
}

func IncIntentUpdate(intent string) {
	intentUpdatesTotal.WithLabelValues(intent).Inc()
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncFeedEvent(direction string) {
	feedEventsTotal.WithLabelValues(direction).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
