package schedule

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapmail_runs_total",
		Help: "Capture runs by outcome.",
	}, []string{"outcome"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snapmail_run_duration_seconds",
		Help:    "Wall-clock duration of capture runs.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapmail_notifications_total",
		Help: "Notification deliveries by status.",
	}, []string{"status"})
)
