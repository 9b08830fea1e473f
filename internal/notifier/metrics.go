package notifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botreplymsg_notifications_total",
	Help: "Private message dispatch attempts by kind (mod|user) and outcome",
}, []string{"kind", "outcome"})

var dispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "botreplymsg_notification_send_seconds",
	Help:    "Time spent sending one private message",
	Buckets: prometheus.DefBuckets,
})
