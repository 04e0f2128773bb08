package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for training runs, model selection, segmentation and inference.

var (
	// Training
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelml_training_runs_total",
			Help: "Total number of training runs by outcome",
		},
		[]string{"outcome"}, // "success", "data_error", "model_quality", "error"
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelml_training_stage_duration_seconds",
			Help:    "Duration of each training stage in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"stage"},
	)

	CandidateScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "travelml_candidate_test_f1",
			Help: "Held-out F1 of each candidate family in the latest training run",
		},
		[]string{"family"},
	)

	GridFits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelml_grid_fits_total",
			Help: "Total number of grid-search fits by family and outcome",
		},
		[]string{"family", "outcome"},
	)

	SegmentSilhouette = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "travelml_segment_silhouette",
			Help: "Silhouette score per candidate segment count in the latest run",
		},
		[]string{"k"},
	)

	// Inference
	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelml_predictions_total",
			Help: "Total number of predictions by label",
		},
		[]string{"label"},
	)

	PredictionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelml_prediction_errors_total",
			Help: "Total number of failed predictions",
		},
		[]string{"reason"}, // "not_ready", "invalid", "transform"
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "travelml_prediction_duration_seconds",
			Help:    "Latency of single-record predictions in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ArtifactReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelml_artifact_reloads_total",
			Help: "Total number of artifact reloads by outcome",
		},
		[]string{"outcome"},
	)

	// API
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelml_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelml_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordStage observes one stage duration.
func RecordStage(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordGridFit counts one grid-search fit.
func RecordGridFit(family string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	GridFits.WithLabelValues(family, outcome).Inc()
}

// RecordSilhouette sets the silhouette gauge for k.
func RecordSilhouette(k int, score float64) {
	SegmentSilhouette.WithLabelValues(strconv.Itoa(k)).Set(score)
}

// RecordPrediction observes a prediction outcome; an empty label means failure.
func RecordPrediction(label, reason string, duration time.Duration) {
	PredictionDuration.Observe(duration.Seconds())
	if reason != "" {
		PredictionErrors.WithLabelValues(reason).Inc()
		return
	}
	Predictions.WithLabelValues(label).Inc()
}

// RecordAPIRequest records request count and latency.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
