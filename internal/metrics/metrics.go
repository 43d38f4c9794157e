// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the ingestion pipeline.
//
// It exposes a narrow Backend interface (counters and timings) and a global,
// pluggable backend that defaults to a no-op implementation, so the helpers
// below are always safe to call even when no real backend is configured.
// Concrete systems live in subpackages (prompush, datadog).
package metrics

import "time"

// Metric names shared by all backends.
const (
	StepTotal       = "pisa_step_total"
	StepDuration    = "pisa_step_duration_seconds"
	RowsTotal       = "pisa_rows_total"
	BatchesTotal    = "pisa_batches_total"
	FilesTotal      = "pisa_files_total"
	DefaultJobLabel = "pisaetl"
)

// Row kinds passed to RecordRow.
const (
	RowsRead     = "read"
	RowsWritten  = "written"
	RowsDropped  = "dropped"
	RowsCoerced  = "coerced_null"
	RowsDeduped  = "deduped"
	FileLoaded   = "loaded"
	FileFailed   = "failed"
	StatusOK     = "success"
	StatusFailed = "failure"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one pipeline step
// (read, normalize, load, ...).
func RecordStep(job, step string, err error, d time.Duration) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a row-level counter for the given job and kind
// (RowsRead, RowsWritten, RowsDropped, ...). Non-positive deltas are ignored.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments a batch-level counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}

// RecordFile counts one workbook outcome (FileLoaded or FileFailed).
func RecordFile(job, status string) {
	backend.IncCounter(FilesTotal, 1, Labels{
		"job":    job,
		"status": status,
	})
}
