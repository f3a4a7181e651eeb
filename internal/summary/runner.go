package summary

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"vendorsummary/internal/metrics"
	"vendorsummary/internal/schema"
)

// Runner executes one full summary run: Aggregate, Enrich, Materialize.
type Runner struct {
	Engine       Engine
	Materializer Materializer
	// Table is the destination; empty selects schema.SummaryTable.
	Table string
	// Job labels metrics and logs.
	Job string
}

// Result describes a successful run.
type Result struct {
	RunID    string
	Table    string
	Rows     int
	Excluded int
	Checksum string
	Elapsed  time.Duration
}

// Run executes the stages strictly in order. The first failing stage aborts
// the run; its error is returned wrapped with the stage name and nothing is
// materialized unless enrichment succeeded.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.NewString(), Table: r.Table}
	if res.Table == "" {
		res.Table = schema.SummaryTable
	}
	job := r.Job
	if job == "" {
		job = "vendor_summary"
	}
	start := time.Now()
	log.Printf("summary: run=%s start table=%s", res.RunID, res.Table)

	t0 := time.Now()
	joined, err := r.Engine.Aggregate(ctx)
	metrics.RecordStep(job, "aggregate", err, time.Since(t0))
	if err != nil {
		return res, fmt.Errorf("aggregate: %w", err)
	}
	metrics.RecordRow(job, "aggregated", int64(len(joined)))
	log.Printf("summary: run=%s stage=aggregate rows=%s", res.RunID, humanize.Comma(int64(len(joined))))

	t0 = time.Now()
	rows, err := Enrich(joined)
	metrics.RecordStep(job, "enrich", err, time.Since(t0))
	if err != nil {
		return res, fmt.Errorf("enrich: %w", err)
	}
	res.Rows = len(rows)
	res.Excluded = len(joined) - len(rows)
	metrics.RecordRow(job, "excluded", int64(res.Excluded))
	log.Printf("summary: run=%s stage=enrich rows=%s excluded=%d", res.RunID, humanize.Comma(int64(res.Rows)), res.Excluded)

	t0 = time.Now()
	err = r.Materializer.Materialize(ctx, rows, res.Table)
	metrics.RecordStep(job, "materialize", err, time.Since(t0))
	if err != nil {
		return res, fmt.Errorf("materialize: %w", err)
	}
	metrics.RecordRow(job, "materialized", int64(res.Rows))
	metrics.RecordTableRows(job, res.Table, int64(res.Rows))

	res.Checksum = Checksum(rows)
	res.Elapsed = time.Since(start)
	log.Printf("summary: run=%s done rows=%s checksum=%s elapsed=%s",
		res.RunID, humanize.Comma(int64(res.Rows)), res.Checksum, res.Elapsed.Round(time.Millisecond))
	return res, nil
}
