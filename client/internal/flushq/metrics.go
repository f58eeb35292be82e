package flushq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voxlingua_client",
		Name:      "flushq_submissions_total",
		Help:      "Jobs accepted into the flush queue.",
	})

	jobFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voxlingua_client",
		Name:      "flushq_job_failures_total",
		Help:      "Jobs that exhausted their retries.",
	})

	queueFullTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voxlingua_client",
		Name:      "flushq_queue_full_total",
		Help:      "Submissions rejected because the queue was full.",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxlingua_client",
		Name:      "flushq_queue_depth",
		Help:      "Jobs waiting in the flush queue.",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voxlingua_client",
		Name:      "flushq_run_duration_seconds",
		Help:      "Latency of individual job attempts.",
		Buckets:   prometheus.DefBuckets,
	})
)
