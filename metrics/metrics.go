package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UnitsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_units_loaded_total",
			Help: "Total number of detection units loaded successfully",
		},
	)

	UnitLoadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_unit_load_failures_total",
			Help: "Total number of detection unit load failures",
		},
		[]string{"reason"},
	)

	Evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_evaluations_total",
			Help: "Total number of (event, unit) evaluations",
		},
		[]string{"outcome"}, // matched, unmatched, errored
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_evaluation_duration_seconds",
			Help:    "Time taken to evaluate one unit against one event",
			Buckets: prometheus.DefBuckets,
		},
	)

	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_events_ingested_total",
			Help: "Total number of events loaded for evaluation",
		},
		[]string{"source"},
	)

	GoroutinePanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_goroutine_panics_total",
			Help: "Total number of panics recovered in served goroutines",
		},
		[]string{"goroutine"},
	)

	WorkerPoolActiveWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vigil_worker_pool_active_workers",
			Help: "Number of active workers per pool",
		},
		[]string{"pool"},
	)

	WorkerPoolQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vigil_worker_pool_queue_depth",
			Help: "Number of queued tasks per pool",
		},
		[]string{"pool"},
	)
)

// Evaluation outcome label values.
const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
	OutcomeErrored   = "errored"
)
