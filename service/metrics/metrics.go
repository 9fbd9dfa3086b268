package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Chain RPC metrics
	checkpointFetchesTotal  *prometheus.CounterVec
	checkpointFetchDuration *prometheus.HistogramVec

	// Submission metrics
	submissionsTotal   *prometheus.CounterVec
	submissionDuration *prometheus.HistogramVec
	batchSize          prometheus.Histogram

	// Backend API metrics
	apiCallsTotal   *prometheus.CounterVec
	apiCallDuration *prometheus.HistogramVec

	// Event publishing metrics
	eventsPublishedTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		checkpointFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chain_checkpoint_fetches_total",
				Help: "Total number of checkpoint (blockhash) fetches by status",
			},
			[]string{"status", "endpoint"},
		),
		checkpointFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chain_checkpoint_fetch_duration_seconds",
				Help:    "Duration of checkpoint fetches in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"endpoint"},
		),

		submissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transaction_submissions_total",
				Help: "Total number of transaction submissions by outcome and error kind",
			},
			[]string{"status", "kind"},
		),
		submissionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transaction_submission_duration_seconds",
				Help:    "End-to-end duration of a single submission in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"status"},
		),
		batchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transaction_batch_size",
				Help:    "Number of items per submitted batch",
				Buckets: []float64{1, 2, 3, 5, 10, 25, 50},
			},
		),

		apiCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_api_calls_total",
				Help: "Total number of backend API calls by method and status",
			},
			[]string{"method", "status"},
		),
		apiCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_api_call_duration_seconds",
				Help:    "Duration of backend API calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"method"},
		),

		eventsPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "submission_events_published_total",
				Help: "Total number of submission events published by status",
			},
			[]string{"status"},
		),
	}
}

// RecordCheckpointFetch records a checkpoint fetch attempt.
func (m *Metrics) RecordCheckpointFetch(status, endpoint string, durationSeconds float64) {
	m.checkpointFetchesTotal.WithLabelValues(status, endpoint).Inc()
	m.checkpointFetchDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordSubmission records the outcome of a single transaction submission.
// kind is the error kind for failures, or "none" for successes.
func (m *Metrics) RecordSubmission(status, kind string, durationSeconds float64) {
	m.submissionsTotal.WithLabelValues(status, kind).Inc()
	m.submissionDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordBatchSize records the number of items in a submitted batch.
func (m *Metrics) RecordBatchSize(n int) {
	m.batchSize.Observe(float64(n))
}

// RecordAPICall records a backend API call.
func (m *Metrics) RecordAPICall(method, status string, durationSeconds float64) {
	m.apiCallsTotal.WithLabelValues(method, status).Inc()
	m.apiCallDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordEventPublished records a submission event publish attempt.
func (m *Metrics) RecordEventPublished(status string) {
	m.eventsPublishedTotal.WithLabelValues(status).Inc()
}
