package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatheredNames(t *testing.T, reg *prometheus.Registry) []string {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	return names
}

func TestNewMetrics_RegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordCheckpointFetch("success", "devnet", 0.12)
	m.RecordSubmission("error", "invalid_recipient", 0.5)
	m.RecordBatchSize(3)
	m.RecordAPICall("submit_transaction", "200", 0.05)
	m.RecordEventPublished("success")

	names := gatheredNames(t, reg)
	assert.Contains(t, names, "chain_checkpoint_fetches_total")
	assert.Contains(t, names, "chain_checkpoint_fetch_duration_seconds")
	assert.Contains(t, names, "transaction_submissions_total")
	assert.Contains(t, names, "transaction_submission_duration_seconds")
	assert.Contains(t, names, "transaction_batch_size")
	assert.Contains(t, names, "backend_api_calls_total")
	assert.Contains(t, names, "backend_api_call_duration_seconds")
	assert.Contains(t, names, "submission_events_published_total")
}

func TestRecordSubmission_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordSubmission("success", "none", 0.1)
	m.RecordSubmission("success", "none", 0.2)
	m.RecordSubmission("error", "network_unavailable", 0.3)

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != "transaction_submissions_total" {
			continue
		}
		total := 0.0
		for _, metric := range f.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		assert.Equal(t, 3.0, total)
		return
	}
	t.Fatal("transaction_submissions_total was not gathered")
}
