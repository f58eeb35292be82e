// Package metrics holds the service's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsIssuedTotal counts ephemeral credentials handed out.
	SessionsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voxlingua",
		Name:      "sessions_issued_total",
		Help:      "Realtime sessions successfully issued.",
	})

	// AdmissionRejectedTotal counts admission failures by reason.
	AdmissionRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxlingua",
		Name:      "admission_rejected_total",
		Help:      "Session requests rejected before issuance.",
	}, []string{"reason"})

	// UsageSecondsTotal counts seconds recorded by the quota ledger.
	UsageSecondsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voxlingua",
		Name:      "usage_seconds_total",
		Help:      "Connected seconds recorded via usage pings.",
	})

	// LogBatchesTotal counts event batches appended to the conversation log.
	LogBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voxlingua",
		Name:      "log_batches_total",
		Help:      "Event batches written to the conversation log.",
	})

	// LogEventsTotal counts individual events appended to the conversation log.
	LogEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voxlingua",
		Name:      "log_events_total",
		Help:      "Events written to the conversation log.",
	})
)
