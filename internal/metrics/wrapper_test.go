package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWrapper_PreparationCounters(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	w := NewWrapper(m)

	w.RowsReadAdd(100)
	w.TrainRowsAdd(90)
	w.TestRowsAdd(10)
	w.ParseErrorInc()
	w.PrepareDurationObserve(25 * time.Millisecond)

	assert.Equal(t, 100.0, testutil.ToFloat64(m.RowsRead))
	assert.Equal(t, 90.0, testutil.ToFloat64(m.TrainRowsWritten))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.TestRowsWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PrepareRuns))
}

func TestWrapper_FetchAndTrainerCounters(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	w := NewWrapper(m)

	w.DatasetFetchInc()
	w.FetchFailureInc()
	w.TrainRequestInc()
	w.TrainFailureInc()
	w.PredictRequestInc()
	w.PredictFailureInc()
	w.TrainerLatencyObserve(time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetFetches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrainRequests))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrainFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictRequests))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictFailures))
}

func TestNewWithRegistry_IsolatedRegistries(t *testing.T) {
	// Two instances on separate registries must not collide.
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.RowsRead.Add(5)
	assert.Equal(t, 5.0, testutil.ToFloat64(a.RowsRead))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RowsRead))
}
