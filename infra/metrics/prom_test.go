package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/dingo/core/metrics"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	rec := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordEmission(coremetrics.EmissionEvent{Dataset: "d", Phase: "batch", Record: rec, Latency: time.Millisecond}))
	require.NoError(t, s.RecordEmission(coremetrics.EmissionEvent{Dataset: "d", Phase: "batch", Record: rec.Add(time.Minute)}))
	require.NoError(t, s.RecordDrop(coremetrics.DropEvent{}))
	require.NoError(t, s.RecordDeliveryError(coremetrics.DeliveryErrorEvent{Transport: "http"}))
	require.NoError(t, s.RecordPass(coremetrics.PassSummary{Phase: "realtime", Found: true}))

	assert.Equal(t, 2.0, testutil.ToFloat64(s.emitted.WithLabelValues("d", "batch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.dropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.failures.WithLabelValues("http")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.passes.WithLabelValues("realtime", "true")))
	assert.Equal(t, float64(rec.Add(time.Minute).Unix()), testutil.ToFloat64(s.last.WithLabelValues("d")))
}

func TestPromSinkReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, a.RecordDrop(coremetrics.DropEvent{}))
	require.NoError(t, b.RecordDrop(coremetrics.DropEvent{}))
	assert.Equal(t, 2.0, testutil.ToFloat64(b.dropped))
}
