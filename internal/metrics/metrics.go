// Package metrics provides Prometheus metrics collection for the
// recprep dataset preparation tool. It covers the preparation
// transform itself, dataset downloads, and calls to the external
// training service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the preparation tool.
type Metrics struct {
	// Preparation metrics
	RowsRead         prometheus.Counter   // Body rows parsed from the input dataset
	TrainRowsWritten prometheus.Counter   // Rows written to the training output
	TestRowsWritten  prometheus.Counter   // Rows written to the test output
	ParseErrors      prometheus.Counter   // Malformed rows that aborted a run
	PrepareFailures  prometheus.Counter   // Preparation runs that ended in error
	PrepareRuns      prometheus.Counter   // Preparation runs completed successfully
	PrepareDuration  prometheus.Histogram // End-to-end preparation duration

	// Dataset fetch metrics
	DatasetFetches prometheus.Counter // Dataset download attempts
	FetchFailures  prometheus.Counter // Dataset downloads that failed

	// External trainer metrics
	TrainRequests   prometheus.Counter   // Train submissions to the external pipeline
	TrainFailures   prometheus.Counter   // Failed train submissions
	PredictRequests prometheus.Counter   // Prediction requests to the external pipeline
	PredictFailures prometheus.Counter   // Failed prediction requests
	TrainerLatency  prometheus.Histogram // External trainer request latency
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for
// testing, where the global registry must stay clean).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		RowsRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_rows_read_total",
			Help: "Total number of body rows parsed from input datasets",
		}),
		TrainRowsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_train_rows_written_total",
			Help: "Total number of rows written to training outputs",
		}),
		TestRowsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_test_rows_written_total",
			Help: "Total number of rows written to test outputs",
		}),
		ParseErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_parse_errors_total",
			Help: "Total number of malformed rows encountered",
		}),
		PrepareFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "prepare_failures_total",
			Help: "Total number of preparation runs that failed",
		}),
		PrepareRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "prepare_runs_total",
			Help: "Total number of preparation runs completed",
		}),
		PrepareDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prepare_duration_seconds",
			Help:    "End-to-end dataset preparation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		DatasetFetches: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_fetches_total",
			Help: "Total number of dataset download attempts",
		}),
		FetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_fetch_failures_total",
			Help: "Total number of dataset downloads that failed",
		}),
		TrainRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "trainer_train_requests_total",
			Help: "Total number of train submissions to the external pipeline",
		}),
		TrainFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "trainer_train_failures_total",
			Help: "Total number of failed train submissions",
		}),
		PredictRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "trainer_predict_requests_total",
			Help: "Total number of prediction requests to the external pipeline",
		}),
		PredictFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "trainer_predict_failures_total",
			Help: "Total number of failed prediction requests",
		}),
		TrainerLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trainer_latency_seconds",
			Help:    "External trainer request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
