package reddit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botreplymsg_reddit_requests_total",
	Help: "Reddit API requests by endpoint and status code (0 = transport error)",
}, []string{"endpoint", "code"})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "botreplymsg_reddit_request_duration_seconds",
	Help:    "Reddit API request latency",
	Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
}, []string{"endpoint"})

var rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "botreplymsg_reddit_ratelimit_remaining",
	Help: "Last X-Ratelimit-Remaining value reported by Reddit",
})

var pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botreplymsg_reddit_polls_total",
	Help: "Comment stream polls by result",
}, []string{"result"})

var commentsEmitted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "botreplymsg_reddit_comments_emitted_total",
	Help: "New comments handed to the relay",
})
