// Command ingest loads the raw CSV extracts into the store, replacing the
// purchases, sales, vendor_invoice and purchase_prices tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"vendorsummary/internal/app"
	"vendorsummary/internal/config"
	"vendorsummary/internal/ingest"
)

func main() {
	var (
		cfgPath        string
		o              app.Overrides
		metricsBackend string
		pushGatewayURL string
		validate       bool
		logFile        string
	)

	flag.StringVar(&cfgPath, "config", "", "pipeline config JSON path (optional)")
	flag.StringVar(&o.Dir, "dir", "", "directory holding the CSV files (overrides config ingest.dir)")
	flag.StringVar(&o.DSN, "dsn", "", "store DSN (overrides env SUMMARY_DSN and config)")
	flag.StringVar(&o.Store, "store", "", "store kind: sqlite, postgres or mssql (overrides env SUMMARY_STORE_KIND)")
	flag.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (overrides env METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.StringVar(&logFile, "log-file", "", "also append timestamped logs to this file")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	closeLog, err := app.SetupLogFile(logFile)
	if err != nil {
		fatalf("%v", err)
	}
	defer closeLog()

	if err := app.LoadEnv(); err != nil {
		fatalf("%v", err)
	}

	p, err := app.LoadPipeline(cfgPath, o, os.Getenv)
	if err != nil {
		fatalf("%v", err)
	}
	if err := app.CheckPipeline(p, os.Stderr); err != nil {
		fatalf("%v", err)
	}
	if strings.TrimSpace(p.Ingest.Dir) == "" {
		fatalf("ingest: no CSV directory; set -dir or ingest.dir")
	}
	if validate {
		log.Printf("configuration is valid")
		return
	}

	flush := app.SetupMetrics(app.MetricsOptions{
		Backend:        metricsBackend,
		PushgatewayURL: pushGatewayURL,
		Job:            p.Job,
	}, os.Getenv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, p, *verbose)
	stop()
	flush()
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
}

func run(ctx context.Context, p config.Pipeline, verbose bool) error {
	start := time.Now()
	repo, d, err := app.OpenStore(ctx, p)
	if err != nil {
		return err
	}
	defer repo.Close()

	l, err := ingest.NewLoader(repo, d.MapType, p)
	if err != nil {
		return err
	}
	inputs, err := ingest.FileInputs(p.Ingest)
	if err != nil {
		return err
	}
	if verbose {
		log.Printf("ingest: store=%s dir=%s workers=%d batch=%d",
			p.Store.Kind, p.Ingest.Dir, p.Runtime.LoaderWorkers, p.Runtime.BatchSize)
	}

	results, err := l.Load(ctx, inputs)
	if err != nil {
		return err
	}
	var total int64
	for _, r := range results {
		total += r.Rows
	}
	log.Printf("ingest: loaded tables=%d rows=%s in %s",
		len(results), humanize.Comma(total), time.Since(start).Truncate(time.Millisecond))
	return nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
