// Package metrics records operational metrics for the vendor summary run and
// the raw-data ingester behind a small, backend-agnostic interface.
//
// A global backend defaults to a no-op so instrumentation is always safe to
// call. Concrete systems live in subpackages (prompush, datadog) and are
// installed with SetBackend by the binaries.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by this package. Backends switch on these.
const (
	StepTotal           = "summary_step_total"
	StepDurationSeconds = "summary_step_duration_seconds"
	RecordsTotal        = "summary_records_total"
	BatchesTotal        = "summary_batches_total"
	// TableRows is a gauge holding the row count of the last table written.
	TableRows = "summary_table_rows"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// SetGauge sets a gauge to value.
	SetGauge(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) SetGauge(string, float64, Labels)         {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of a pipeline stage and records its
// latency, labelled by job, step and status (success or failure).
//
// Steps used by the binaries: aggregate, enrich, materialize, ingest.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Kinds used by the binaries:
//   - "aggregated"   rows returned by the aggregation query
//   - "excluded"     rows dropped for a non-positive purchase price
//   - "materialized" rows written to the summary table
//   - "ingested"     raw rows loaded from CSV
//   - "parse_errors" CSV records rejected by the ingester
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments a batch-level counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}

// RecordTableRows sets the row-count gauge for table.
func RecordTableRows(job, table string, rows int64) {
	current().SetGauge(TableRows, float64(rows), Labels{
		"job":   job,
		"table": table,
	})
}
