// Package metrics exposes Prometheus counters for the image pipeline,
// the admin batch jobs and the session store.
//
// Metrics are served in Prometheus text format at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Normalize outcomes
const (
	OutcomeConverted    = "converted"
	OutcomeRecompressed = "recompressed"
	OutcomePassthrough  = "passthrough"
	OutcomeDegraded     = "degraded"
	OutcomeRejected     = "rejected"
	OutcomeOK           = "ok"
	OutcomeFailed       = "failed"
	OutcomeSkipped      = "skipped"
)

var (
	// ImageNormalizeTotal counts Normalize calls by detected format and outcome.
	ImageNormalizeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_normalize_total",
			Help: "Image normalizations by source format and outcome",
		},
		[]string{"format", "outcome"},
	)

	// ImageThumbnailTotal counts thumbnail generations by style and outcome.
	ImageThumbnailTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_thumbnail_total",
			Help: "Thumbnail generations by style and outcome",
		},
		[]string{"style", "outcome"},
	)

	// ImageBytesSaved accumulates bytes saved by normalization.
	ImageBytesSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_bytes_saved_total",
			Help: "Bytes saved by re-encoding uploaded images",
		},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbnail_cache_hits_total",
			Help: "Thumbnail reads served from the stored column",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbnail_cache_misses_total",
			Help: "Thumbnail reads that had to regenerate the thumbnail",
		},
	)

	// BatchRowsTotal counts rows visited by admin batch jobs.
	BatchRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_rows_total",
			Help: "Rows visited by admin batch jobs by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	SessionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_swept_total",
			Help: "Expired sessions removed by the background sweeper",
		},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)
)
