// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReviewSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_submissions_total",
			Help: "Review submissions by mode (create/update) and outcome",
		},
		[]string{"mode", "outcome"},
	)

	ReviewSubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "review_submission_duration_seconds",
			Help:    "Time spent waiting on the review store",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	ReviewValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_validation_failures_total",
			Help: "Draft validation failures by field",
		},
		[]string{"field", "code"},
	)

	AttachmentsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_attachments_rejected_total",
			Help: "Photo attachments rejected at add time",
		},
		[]string{"reason"},
	)

	AttachmentsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "review_attachments_dropped_total",
			Help: "Photos silently dropped because the set was full",
		},
	)

	SummaryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_summary_lookups_total",
			Help: "Rating summary lookups by source",
		},
		[]string{"source"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)
