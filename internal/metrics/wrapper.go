package metrics

import "time"

// Wrapper adapts Metrics to the small sink interfaces declared by the
// dataprep, fetch, and trainer packages, so those packages do not
// import prometheus directly.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

// dataprep.MetricsSink

func (w *Wrapper) RowsReadAdd(n int) {
	w.m.RowsRead.Add(float64(n))
}

func (w *Wrapper) TrainRowsAdd(n int) {
	w.m.TrainRowsWritten.Add(float64(n))
}

func (w *Wrapper) TestRowsAdd(n int) {
	w.m.TestRowsWritten.Add(float64(n))
}

func (w *Wrapper) ParseErrorInc() {
	w.m.ParseErrors.Inc()
}

func (w *Wrapper) PrepareDurationObserve(d time.Duration) {
	w.m.PrepareDuration.Observe(d.Seconds())
	w.m.PrepareRuns.Inc()
}

// fetch.MetricsSink

func (w *Wrapper) DatasetFetchInc() {
	w.m.DatasetFetches.Inc()
}

func (w *Wrapper) FetchFailureInc() {
	w.m.FetchFailures.Inc()
}

// trainer.MetricsSink

func (w *Wrapper) TrainRequestInc() {
	w.m.TrainRequests.Inc()
}

func (w *Wrapper) TrainFailureInc() {
	w.m.TrainFailures.Inc()
}

func (w *Wrapper) PredictRequestInc() {
	w.m.PredictRequests.Inc()
}

func (w *Wrapper) PredictFailureInc() {
	w.m.PredictFailures.Inc()
}

func (w *Wrapper) TrainerLatencyObserve(d time.Duration) {
	w.m.TrainerLatency.Observe(d.Seconds())
}
