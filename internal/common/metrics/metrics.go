// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "runs_submitted_total",
			Help: "Total number of research runs submitted",
		},
	)

	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runs_completed_total",
			Help: "Total number of research runs that reached a terminal state",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "run_duration_seconds",
			Help: "Duration of research runs from submission to terminal state",
		},
	)

	RunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "runs_active",
			Help: "Number of runs currently in a non-terminal state",
		},
	)

	AdapterFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapter_failures_total",
			Help: "Total number of source adapter failures",
		},
		[]string{"source", "reason"},
	)

	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_failures_total",
			Help: "Total number of output dispatcher failures",
		},
		[]string{"component"},
	)
)
