// Package ingest loads the raw CSV extracts (purchases, sales, vendor
// invoices, purchase prices) into the store so the summary run can read them.
//
// Each relation is replaced wholesale: its table is recreated empty, then
// rows stream from the CSV reader through batched bulk inserts. Relations
// load concurrently, bounded by the configured worker count.
package ingest

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"vendorsummary/internal/config"
	"vendorsummary/internal/datasource"
	"vendorsummary/internal/datasource/file"
	"vendorsummary/internal/ddl"
	"vendorsummary/internal/metrics"
	"vendorsummary/internal/schema"
	"vendorsummary/internal/storage"
)

// Store is the subset of storage.Repository the loader needs.
type Store interface {
	ReplaceTable(ctx context.Context, td ddl.TableDef, rows [][]any) (int64, error)
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// Input pairs a relation with the source it is read from.
type Input struct {
	Relation schema.Relation
	Source   datasource.Source
	// Name identifies the source in logs, usually the file path.
	Name string
}

// Loader ingests Inputs into Store.
type Loader struct {
	Store   Store
	MapType func(string) string
	Read    ReadOptions

	// BatchSize is the number of rows per CopyFrom call.
	BatchSize int
	// Workers bounds the number of relations loading at once; <= 0 loads all
	// of them concurrently.
	Workers int
	// Job labels metrics.
	Job string
}

// TableResult summarizes one loaded relation.
type TableResult struct {
	Table   string
	Source  string
	Rows    int64
	Skipped int64
	Elapsed time.Duration
}

// NewLoader builds a Loader from the ingest and runtime sections of p.
func NewLoader(store Store, mapType func(string) string, p config.Pipeline) (*Loader, error) {
	if store == nil {
		return nil, fmt.Errorf("ingest: nil store")
	}
	if mapType == nil {
		return nil, fmt.Errorf("ingest: nil MapType")
	}
	opts := p.Ingest.Options
	return &Loader{
		Store:   store,
		MapType: mapType,
		Read: ReadOptions{
			Comma:       opts.Rune("comma", ','),
			LazyQuotes:  opts.Bool("lazy_quotes", false),
			HeaderMap:   opts.StringMap("header_map"),
			NullValues:  opts.StringSlice("null_values"),
			SkipBadRows: opts.Bool("skip_bad_rows", false),
		},
		BatchSize: p.Runtime.BatchSize,
		Workers:   p.Runtime.LoaderWorkers,
		Job:       p.Job,
	}, nil
}

// FileInputs returns one Input per raw relation, reading files from
// in.Dir named by in.IngestFile and decoded per in.Options.
func FileInputs(in config.Ingest) ([]Input, error) {
	enc, err := datasource.CanonicalEncoding(in.Options.String("encoding", ""))
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	nfc := in.Options.Bool("normalize", true)

	rels := schema.RawRelations()
	out := make([]Input, 0, len(rels))
	for _, rel := range rels {
		path := filepath.Join(in.Dir, in.IngestFile(rel.Name))
		out = append(out, Input{
			Relation: rel,
			Source:   file.NewLocal(path).WithEncoding(enc, nfc),
			Name:     path,
		})
	}
	return out, nil
}

// Load ingests every input. The first failure cancels the remaining loads
// and is returned; results are in input order and only complete on success.
func (l *Loader) Load(ctx context.Context, inputs []Input) ([]TableResult, error) {
	if l.BatchSize <= 0 {
		return nil, fmt.Errorf("ingest: batch size must be > 0, got %d", l.BatchSize)
	}

	results := make([]TableResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	if l.Workers > 0 {
		g.SetLimit(l.Workers)
	}
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			t0 := time.Now()
			res, err := l.loadOne(gctx, in)
			metrics.RecordStep(l.Job, "ingest", err, time.Since(t0))
			if err != nil {
				return fmt.Errorf("ingest %s: %w", in.Relation.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (l *Loader) loadOne(ctx context.Context, in Input) (TableResult, error) {
	start := time.Now()
	rel := in.Relation
	res := TableResult{Table: rel.Name, Source: in.Name}

	rc, err := in.Source.Open(ctx)
	if err != nil {
		return res, err
	}
	defer rc.Close()

	td := ddl.FromRelation(rel.Name, rel, l.MapType)
	if _, err := l.Store.ReplaceTable(ctx, td, nil); err != nil {
		return res, fmt.Errorf("create table: %w", err)
	}

	rows := make(chan []any, l.BatchSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(rows)
		_, err := ReadRelation(gctx, rc, rel, l.Read, rows, func(e *RowError) {
			res.Skipped++
			log.Printf("ingest: table=%s skip %v", rel.Name, e)
		})
		return err
	})

	var batches int64
	copyFn := func(ctx context.Context, table string, cols []string, batch [][]any) (int64, error) {
		n, err := l.Store.CopyFrom(ctx, table, cols, batch)
		if err == nil {
			batches++
		}
		return n, err
	}
	g.Go(func() error {
		n, err := storage.LoadBatches(gctx, rel.Name, rel.Columns(), rows, l.BatchSize, copyFn)
		res.Rows = n
		return err
	})

	if err := g.Wait(); err != nil {
		return res, err
	}

	res.Elapsed = time.Since(start)
	metrics.RecordRow(l.Job, "ingested", res.Rows)
	metrics.RecordRow(l.Job, "parse_errors", res.Skipped)
	metrics.RecordBatches(l.Job, batches)
	metrics.RecordTableRows(l.Job, rel.Name, res.Rows)
	log.Printf("ingest: table=%s source=%s rows=%s skipped=%d elapsed=%s",
		rel.Name, in.Name, humanize.Comma(res.Rows), res.Skipped, res.Elapsed.Round(time.Millisecond))
	return res, nil
}
