package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeInvalid        = "invalid"
	OutcomeStorageBackend = "storage_backend_error"
	OutcomeUpload         = "upload_error"
	OutcomeAppend         = "append_error"
	OutcomeError          = "error"
)

var (
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inspection_submissions_total",
		Help: "The total number of inspection submissions by outcome",
	}, []string{"outcome"})

	PhotoUploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inspection_photo_uploads_total",
		Help: "The total number of photos stored",
	})

	PhotoBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inspection_photo_bytes_total",
		Help: "Declared size of all stored photos in bytes",
	})

	OrphanedUploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inspection_orphaned_uploads_total",
		Help: "Photos stored whose row append failed",
	})

	StepLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inspection_step_duration_seconds",
		Help:    "Time taken by the upload and append steps of a submission",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})
)
