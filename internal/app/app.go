// Package app holds the start-up wiring shared by the binaries: .env
// loading, flag/env overrides of the pipeline file, config validation,
// metrics backend selection and opening the store.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"vendorsummary/internal/config"
	"vendorsummary/internal/metrics"
	"vendorsummary/internal/metrics/datadog"
	"vendorsummary/internal/metrics/prompush"
	"vendorsummary/internal/storage"

	// register all backends with the storage factory.
	_ "vendorsummary/internal/storage/all"
)

// Environment variables consulted when a flag is not set.
const (
	EnvDSN            = "SUMMARY_DSN"
	EnvStoreKind      = "SUMMARY_STORE_KIND"
	EnvMetricsBackend = "METRICS_BACKEND"
	EnvPushgatewayURL = "PUSHGATEWAY_URL"
	EnvDatadogAddr    = "DD_AGENT_ADDR"
)

// DefaultPushgatewayURL is used when neither flag nor env names one.
const DefaultPushgatewayURL = "http://localhost:9091"

// LoadEnv loads .env files (default ".env") into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Overrides are command-line values layered over the pipeline file.
// Empty fields leave the file value in place.
type Overrides struct {
	Store  string
	DSN    string
	Engine string
	Table  string
	Dir    string
}

// LoadPipeline reads path (or starts from an empty pipeline when path is
// empty) and applies overrides with flag → env → file → default precedence.
func LoadPipeline(path string, o Overrides, getenv func(string) string) (config.Pipeline, error) {
	var p config.Pipeline
	if path != "" {
		var err error
		if p, err = config.Load(path); err != nil {
			return p, err
		}
	}
	p.Store.Kind = FirstNonEmpty(o.Store, getenv(EnvStoreKind), p.Store.Kind)
	p.Store.DB.DSN = FirstNonEmpty(o.DSN, getenv(EnvDSN), p.Store.DB.DSN)
	p.Summary.Engine = FirstNonEmpty(o.Engine, p.Summary.Engine)
	p.Summary.Table = FirstNonEmpty(o.Table, p.Summary.Table)
	p.Ingest.Dir = FirstNonEmpty(o.Dir, p.Ingest.Dir)
	config.ApplyDefaults(&p)
	return p, nil
}

// CheckPipeline writes every validation issue to w and returns an error if
// any of them is an error.
func CheckPipeline(p config.Pipeline, w io.Writer) error {
	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid (%d issues)", len(issues))
	}
	return nil
}

// MetricsOptions selects and configures the metrics backend.
type MetricsOptions struct {
	// Backend is "pushgateway", "datadog", "none" or empty.
	Backend        string
	PushgatewayURL string
	DatadogAddr    string
	Job            string
}

// SetupMetrics installs the selected backend and returns a flush function to
// defer. An unusable backend is logged and metrics stay disabled, so a run
// never fails because of instrumentation.
func SetupMetrics(o MetricsOptions, getenv func(string) string) (flush func()) {
	nop := func() {}
	name := FirstNonEmpty(o.Backend, getenv(EnvMetricsBackend))

	var (
		b   metrics.Backend
		err error
	)
	switch strings.ToLower(name) {
	case "", "none":
		return nop
	case "pushgateway":
		url := FirstNonEmpty(o.PushgatewayURL, getenv(EnvPushgatewayURL), DefaultPushgatewayURL)
		b, err = prompush.NewBackend(o.Job, url)
		log.Printf("metrics: backend=pushgateway url=%s job=%s", url, o.Job)
	case "datadog":
		addr := FirstNonEmpty(o.DatadogAddr, getenv(EnvDatadogAddr))
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "vendorsummary.",
			GlobalTags: []string{"job:" + o.Job},
		})
		log.Printf("metrics: backend=datadog addr=%s", addr)
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", name)
		return nop
	}
	if err != nil {
		log.Printf("metrics: init %s: %v; metrics disabled", name, err)
		return nop
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

// OpenStore opens the repository selected by p.Store and returns it with the
// dialect registered for the same kind. The caller must Close the repository.
func OpenStore(ctx context.Context, p config.Pipeline) (storage.Repository, storage.Dialect, error) {
	d, err := storage.DialectFor(p.Store.Kind)
	if err != nil {
		return nil, storage.Dialect{}, err
	}
	repo, err := storage.New(ctx, storage.Config{Kind: p.Store.Kind, DSN: p.Store.DB.DSN})
	if err != nil {
		return nil, storage.Dialect{}, fmt.Errorf("open %s store: %w", p.Store.Kind, err)
	}
	return repo, d, nil
}
