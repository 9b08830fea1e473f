package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botreplymsg_events_total",
	Help: "Comment events by result (skip reason, relayed, not_applicable, error)",
}, []string{"result"})

var eventDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "botreplymsg_event_duration_seconds",
	Help:    "Time to process one comment event end to end",
	Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
})
