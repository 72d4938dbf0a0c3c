package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/splan/core/metrics"
)

func TestPromSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordResolution(coremetrics.ResolutionEvent{Source: "splan", Rows: 6}))
	require.NoError(t, sink.RecordResolution(coremetrics.ResolutionEvent{Source: "manual", Rows: 4, Err: "no school week"}))
	require.NoError(t, sink.RecordFetch(coremetrics.FetchEvent{Kind: "basis", OK: true, Latency: 20 * time.Millisecond}))
	require.NoError(t, sink.RecordFetch(coremetrics.FetchEvent{Kind: "substitution"}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.resolutions.WithLabelValues("splan")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.resolutions.WithLabelValues("manual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.errors))
	assert.Equal(t, 4.0, testutil.ToFloat64(sink.rows))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.fetches.WithLabelValues("basis", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.fetches.WithLabelValues("substitution", "error")))
}

func TestPromSinkReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordResolution(coremetrics.ResolutionEvent{Source: "entity"}))
	assert.Equal(t, 1.0, testutil.ToFloat64(second.resolutions.WithLabelValues("entity")))
}
