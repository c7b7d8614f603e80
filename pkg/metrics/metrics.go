// Package metrics holds the Prometheus collectors for training and serving.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// PredictionsTotal counts prediction calls by outcome
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vivienda_predictions_total",
			Help: "Total number of price predictions served",
		},
		[]string{"status"}, // status: ok, input_error, failed
	)

	// PredictionDuration measures model inference time in seconds
	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vivienda_prediction_duration_seconds",
			Help:    "Time spent building the row and running the forest",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
		},
	)

	// CacheLookups counts prediction cache lookups
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vivienda_prediction_cache_lookups_total",
			Help: "Prediction cache lookups by result",
		},
		[]string{"result"}, // result: hit, miss, error
	)

	// HTTPRequests counts API requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vivienda_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	// HTTPDuration measures API latency in seconds
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vivienda_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// TrainingRuns counts training runs by outcome
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vivienda_training_runs_total",
			Help: "Training pipeline runs",
		},
		[]string{"status"}, // status: success, failed
	)

	// TrainingDuration measures the duration of a full training run
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vivienda_training_duration_seconds",
			Help:    "Duration of a full training run",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s to ~200s
		},
	)

	// ModelQuality exposes the held-out evaluation of the loaded artifact
	ModelQuality = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vivienda_model_quality",
			Help: "Held-out evaluation metrics of the current artifact",
		},
		[]string{"metric"}, // metric: mae, rmse, r2, baseline_rmse
	)
)

// Quality is the subset of evaluation metrics published as gauges
type Quality struct {
	MAE          float64
	RMSE         float64
	R2           float64
	BaselineRMSE float64
}

// ObserveQuality publishes evaluation metrics for the active artifact
func ObserveQuality(q Quality) {
	ModelQuality.WithLabelValues("mae").Set(q.MAE)
	ModelQuality.WithLabelValues("rmse").Set(q.RMSE)
	ModelQuality.WithLabelValues("r2").Set(q.R2)
	ModelQuality.WithLabelValues("baseline_rmse").Set(q.BaselineRMSE)
}
