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
			Namespace: "jsr",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jsr",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	// VoteTransitions 投票状态转换次数，transition: created/flipped/removed/unchanged
	VoteTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jsr_vote_transitions_total",
			Help: "Vote ledger transitions by kind",
		},
		[]string{"transition"},
	)

	// VoteConflicts 并发首次投票触发唯一约束的次数
	VoteConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jsr_vote_conflicts_total",
			Help: "Concurrent first votes rejected by the unique constraint",
		},
	)

	// PreviewCache 链接预览缓存命中情况，result: hit/miss
	PreviewCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jsr_link_preview_cache_total",
			Help: "Link preview cache lookups",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(VoteTransitions)
		prometheus.MustRegister(VoteConflicts)
		prometheus.MustRegister(PreviewCache)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		// 未匹配的路径统一归类，避免标签基数膨胀
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		RequestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, route).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
