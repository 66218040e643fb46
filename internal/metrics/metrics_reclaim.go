package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Memory Reclamation Metrics
var (
	// ReclaimInvocationsTotal counts reclamation runs by mode
	ReclaimInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reclaim_invocations_total",
			Help: "Total number of memory reclamation runs by mode",
		},
		[]string{"mode"},
	)

	// ReclaimWarningsTotal counts sub-step warnings by category
	ReclaimWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reclaim_warnings_total",
			Help: "Total number of reclamation sub-step warnings by category",
		},
		[]string{"type"},
	)

	// ReclaimDurationSeconds observes wall time of a full reclamation run
	ReclaimDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reclaim_duration_seconds",
			Help:    "Wall time of a full memory reclamation run",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	// AcceleratorFreedBytes tracks accelerator allocated bytes released by the last run
	AcceleratorFreedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reclaim_accelerator_freed_bytes",
			Help: "Accelerator allocated bytes released by the last reclamation run",
		},
	)

	// SystemAvailableDeltaBytes tracks the change in available system memory from the last run
	SystemAvailableDeltaBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reclaim_system_available_delta_bytes",
			Help: "Change in available system memory produced by the last reclamation run",
		},
	)

	// ModelUnloadsTotal counts aggressive-mode unload-all requests to the host
	ModelUnloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reclaim_model_unloads_total",
			Help: "Total number of unload-all-models requests sent to the host",
		},
	)

	// NodeExecutionsTotal counts passthrough node executions by node ID
	NodeExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reclaim_node_executions_total",
			Help: "Total number of passthrough node executions by node",
		},
		[]string{"node"},
	)
)
