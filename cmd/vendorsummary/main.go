// Command vendorsummary builds the vendor_sales_summary table from the raw
// purchases, sales, vendor_invoice and purchase_prices tables in the store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendorsummary/internal/app"
	"vendorsummary/internal/config"
	"vendorsummary/internal/summary"
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
	flag.StringVar(&o.DSN, "dsn", "", "store DSN (overrides env SUMMARY_DSN and config)")
	flag.StringVar(&o.Store, "store", "", "store kind: sqlite, postgres or mssql (overrides env SUMMARY_STORE_KIND)")
	flag.StringVar(&o.Engine, "engine", "", "aggregation engine: sql or memory")
	flag.StringVar(&o.Table, "table", "", "destination table")
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
		log.Fatalf("vendorsummary: %v", err)
	}
}

func run(ctx context.Context, p config.Pipeline, verbose bool) error {
	start := time.Now()
	repo, d, err := app.OpenStore(ctx, p)
	if err != nil {
		return err
	}
	defer repo.Close()

	eng, err := summary.NewEngine(p.Summary.Engine, repo, d.Quote)
	if err != nil {
		return err
	}
	if verbose {
		log.Printf("pipeline: store=%s engine=%s table=%s", p.Store.Kind, p.Summary.Engine, p.Summary.Table)
	}

	r := &summary.Runner{
		Engine:       eng,
		Materializer: &summary.TableMaterializer{Store: repo, MapType: d.MapType},
		Table:        p.Summary.Table,
		Job:          p.Job,
	}
	res, err := r.Run(ctx)
	if err != nil {
		return err
	}
	if verbose {
		log.Printf("completed run=%s rows=%d excluded=%d checksum=%s in %s",
			res.RunID, res.Rows, res.Excluded, res.Checksum, time.Since(start).Truncate(time.Millisecond))
	}
	return nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
